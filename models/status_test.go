package models

import "testing"

func TestParseStatus(t *testing.T) {
	tests := []struct {
		raw     string
		want    Status
		wantErr bool
	}{
		{raw: "INITIAL", want: StatusInitial},
		{raw: "IN_PROGRESS", want: StatusInProgress},
		{raw: "FINALIZED", want: StatusFinalized},
		// Legacy vocabularies still present in old rows.
		{raw: "INGRESADO", want: StatusInitial},
		{raw: "INICIAL", want: StatusInitial},
		{raw: "EN_PROCESO", want: StatusInProgress},
		{raw: "PROCESO", want: StatusInProgress},
		{raw: "LISTA", want: StatusFinalized},
		{raw: "FINALIZADO", want: StatusFinalized},
		{raw: "ARCHIVED", wantErr: true},
		{raw: "", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseStatus(tt.raw)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseStatus(%q) = %v, want error", tt.raw, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseStatus(%q) unexpected error: %v", tt.raw, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseStatus(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}
