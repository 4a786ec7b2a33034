package provisioning

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseAbrPreset parses the compact textual preset form:
//
//	entry (',' entry)*
//	entry = name '|' resolution '|' bitrateKbps
//
// Whitespace around tokens is trimmed. Empty entries after splitting on
// ',' are skipped. An empty preset string yields an empty, non-error
// ladder. Any malformed entry fails parsing with a descriptive error
// naming the offending entry.
func ParseAbrPreset(raw string) ([]AbrVariant, error) {
	var variants []AbrVariant

	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		fields := strings.Split(entry, "|")
		if len(fields) != 3 {
			return nil, fmt.Errorf("invalid abr preset entry %q: expected name|resolution|bitrateKbps", entry)
		}

		name := strings.TrimSpace(fields[0])
		resolution := strings.TrimSpace(fields[1])
		bitrateRaw := strings.TrimSpace(fields[2])

		if name == "" || resolution == "" || bitrateRaw == "" {
			return nil, fmt.Errorf("invalid abr preset entry %q: empty field", entry)
		}

		bitrate, err := strconv.Atoi(bitrateRaw)
		if err != nil {
			return nil, fmt.Errorf("invalid abr preset entry %q: bitrateKbps %q is not an integer", entry, bitrateRaw)
		}
		if bitrate <= 0 {
			return nil, fmt.Errorf("invalid abr preset entry %q: bitrateKbps must be positive", entry)
		}

		variants = append(variants, AbrVariant{
			Name:        name,
			Resolution:  resolution,
			BitrateKbps: bitrate,
		})
	}

	return variants, nil
}
