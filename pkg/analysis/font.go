package analysis

import (
	"encoding/binary"
	"os"

	"github.com/go-errors/errors"
)

// readFontFamily extracts the family name (nameID 1) from an sfnt
// font's 'name' table, preferring a Windows/Unicode BMP entry, falling
// back to the first usable record. This is a minimal best-effort
// reader sufficient for provider naming; it does not validate the
// full font.
func readFontFamily(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if len(data) < 12 {
		return "", errors.Errorf("analysis: font file too small")
	}

	numTables := int(binary.BigEndian.Uint16(data[4:6]))
	const recordSize = 16
	var nameTableOffset, nameTableLen uint32
	for i := 0; i < numTables; i++ {
		off := 12 + i*recordSize
		if off+recordSize > len(data) {
			break
		}
		tag := string(data[off : off+4])
		if tag == "name" {
			nameTableOffset = binary.BigEndian.Uint32(data[off+8 : off+12])
			nameTableLen = binary.BigEndian.Uint32(data[off+12 : off+16])
			break
		}
	}
	if nameTableOffset == 0 {
		return "", errors.Errorf("analysis: no name table found")
	}

	table := data[nameTableOffset:]
	if nameTableLen > 0 && uint32(len(table)) > nameTableLen {
		table = table[:nameTableLen]
	}
	if len(table) < 6 {
		return "", errors.Errorf("analysis: name table too small")
	}

	count := int(binary.BigEndian.Uint16(table[2:4]))
	stringOffset := binary.BigEndian.Uint16(table[4:6])

	const nameRecordSize = 12
	var fallback string
	for i := 0; i < count; i++ {
		off := 6 + i*nameRecordSize
		if off+nameRecordSize > len(table) {
			break
		}
		platformID := binary.BigEndian.Uint16(table[off : off+2])
		nameID := binary.BigEndian.Uint16(table[off+6 : off+8])
		length := binary.BigEndian.Uint16(table[off+8 : off+10])
		strOff := binary.BigEndian.Uint16(table[off+10 : off+12])
		if nameID != 1 {
			continue
		}

		start := int(stringOffset) + int(strOff)
		end := start + int(length)
		if start < 0 || end > len(table) || start > end {
			continue
		}
		raw := table[start:end]

		name := decodeNameBytes(platformID, raw)
		if name == "" {
			continue
		}
		if platformID == 3 || platformID == 0 {
			return name, nil
		}
		if fallback == "" {
			fallback = name
		}
	}
	if fallback != "" {
		return fallback, nil
	}
	return "", errors.Errorf("analysis: no family name record found")
}

// decodeNameBytes decodes a name-table string record: UTF-16BE for the
// Unicode/Windows platforms, Latin-1-ish passthrough for Macintosh.
func decodeNameBytes(platformID uint16, raw []byte) string {
	if platformID == 1 {
		return string(raw)
	}
	if len(raw)%2 != 0 {
		return ""
	}
	units := make([]uint16, len(raw)/2)
	for i := range units {
		units[i] = binary.BigEndian.Uint16(raw[i*2 : i*2+2])
	}
	runes := make([]rune, 0, len(units))
	for i := 0; i < len(units); i++ {
		r := units[i]
		if r >= 0xD800 && r <= 0xDBFF && i+1 < len(units) {
			r2 := units[i+1]
			if r2 >= 0xDC00 && r2 <= 0xDFFF {
				combined := (rune(r)-0xD800)<<10 + (rune(r2) - 0xDC00) + 0x10000
				runes = append(runes, combined)
				i++
				continue
			}
		}
		runes = append(runes, rune(r))
	}
	return string(runes)
}
