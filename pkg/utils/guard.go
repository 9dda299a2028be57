package utils

import (
	"bytes"
	"io"
)

// Guard is a scope-guard: an ordered stack of release functions, run in
// reverse on Close so last-acquired is first-released. pkg/app uses it
// to release the rootfs lock (SPEC_FULL.md §9, "Manual resource lifetime").
type Guard struct {
	releasers []func() error
}

// Defer schedules fn to run when the guard is closed.
func (g *Guard) Defer(fn func() error) {
	g.releasers = append(g.releasers, fn)
}

// Close runs every deferred release, most-recently-added first, and
// returns the combined error of any that failed.
func (g *Guard) Close() error {
	errs := make([]error, 0, len(g.releasers))
	for i := len(g.releasers) - 1; i >= 0; i-- {
		if err := g.releasers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	g.releasers = nil
	if len(errs) > 0 {
		return multiErr(errs)
	}
	return nil
}

type multiErr []error

func (m multiErr) Error() string {
	var b bytes.Buffer
	b.WriteString("encountered multiple errors releasing resources:")
	for _, err := range m {
		b.WriteString("\n\t... " + err.Error())
	}
	return b.String()
}

// CloseMany closes every closer, continuing past individual failures and
// aggregating them into one error.
func CloseMany(closers []io.Closer) error {
	errs := make([]error, 0, len(closers))
	for _, c := range closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return multiErr(errs)
	}
	return nil
}

// SafeTruncate truncates a string to at most limit bytes.
func SafeTruncate(str string, limit int) string {
	if len(str) > limit {
		return str[0:limit]
	}
	return str
}
