package provisioning_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/channelflow/internal/provisioning"
)

func TestParseAbrPreset(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    []provisioning.AbrVariant
		wantErr bool
	}{
		{
			name: "single entry",
			raw:  "low|640x360|400",
			want: []provisioning.AbrVariant{{Name: "low", Resolution: "640x360", BitrateKbps: 400}},
		},
		{
			name: "multiple entries with whitespace",
			raw:  " low|640x360|400 , mid | 1280x720 | 1500 ",
			want: []provisioning.AbrVariant{
				{Name: "low", Resolution: "640x360", BitrateKbps: 400},
				{Name: "mid", Resolution: "1280x720", BitrateKbps: 1500},
			},
		},
		{
			name: "empty preset string is a fixed point, not an error",
			raw:  "",
			want: nil,
		},
		{
			name: "skips empty entries from trailing commas",
			raw:  "low|640x360|400,,mid|1280x720|1500,",
			want: []provisioning.AbrVariant{
				{Name: "low", Resolution: "640x360", BitrateKbps: 400},
				{Name: "mid", Resolution: "1280x720", BitrateKbps: 1500},
			},
		},
		{
			name:    "wrong field count fails",
			raw:     "low|640x360",
			wantErr: true,
		},
		{
			name:    "empty field fails",
			raw:     "low||400",
			wantErr: true,
		},
		{
			name:    "non-integer bitrate fails",
			raw:     "low|640x360|fast",
			wantErr: true,
		},
		{
			name:    "non-positive bitrate fails",
			raw:     "low|640x360|0",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := provisioning.ParseAbrPreset(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
