//go:build linux

package container

import (
	"bufio"
	"os"
	"os/user"
	"strconv"
	"strings"

	"github.com/go-errors/errors"
)

// IDRange is one contiguous subordinate id allotment, as recorded in
// /etc/subuid or /etc/subgid.
type IDRange struct {
	HostStart  int
	GuestStart int
	Length     int
}

// LookupSubordinateRanges reads the subordinate-id allotment for the
// given owner name from dbPath (/etc/subuid or /etc/subgid), the host
// policy database referenced by spec.md §4.3.
func LookupSubordinateRanges(dbPath, owner string) ([]IDRange, error) {
	f, err := os.Open(dbPath)
	if err != nil {
		return nil, errors.Errorf("container: open %s: %w", dbPath, err)
	}
	defer f.Close()

	var ranges []IDRange
	guestStart := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, ":")
		if len(fields) != 3 || fields[0] != owner {
			continue
		}
		start, err := strconv.Atoi(fields[1])
		if err != nil {
			continue
		}
		length, err := strconv.Atoi(fields[2])
		if err != nil {
			continue
		}
		ranges = append(ranges, IDRange{HostStart: start, GuestStart: guestStart, Length: length})
		guestStart += length
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(ranges) == 0 {
		return nil, errors.Errorf("container: no subordinate id range for %s in %s", owner, dbPath)
	}
	return ranges, nil
}

// CurrentUserRanges resolves the invoking user's subuid/subgid
// allotments by username, falling back to numeric uid if no named
// entry exists (some policy databases key on uid).
func CurrentUserRanges(dbPath string) ([]IDRange, error) {
	u, err := user.Current()
	if err != nil {
		return nil, err
	}
	ranges, err := LookupSubordinateRanges(dbPath, u.Username)
	if err == nil {
		return ranges, nil
	}
	return LookupSubordinateRanges(dbPath, u.Uid)
}

// FormatIDMap renders ranges as the newline-separated "guest host
// length" triples expected by /proc/<pid>/{uid,gid}_map, always
// prefixed with a single-id mapping of guest 0 to hostID so the
// container's root maps to the invoking user.
func FormatIDMap(hostID int, ranges []IDRange) string {
	var b strings.Builder
	b.WriteString("0 ")
	b.WriteString(strconv.Itoa(hostID))
	b.WriteString(" 1\n")
	for _, r := range ranges {
		b.WriteString(strconv.Itoa(r.GuestStart + 1))
		b.WriteByte(' ')
		b.WriteString(strconv.Itoa(r.HostStart))
		b.WriteByte(' ')
		b.WriteString(strconv.Itoa(r.Length))
		b.WriteByte('\n')
	}
	return b.String()
}
