package encap

import (
	"errors"
	"testing"

	"github.com/gopacket/gopacket/layers"
)

// TestLinkTypeTagValues pins the registry values written into container
// headers; readers of existing captures depend on them.
func TestLinkTypeTagValues(t *testing.T) {
	if LinkTypeUser0 != 147 {
		t.Errorf("LinkTypeUser0 = %d, want 147", LinkTypeUser0)
	}
	if LinkTypeRTACSerial != 250 {
		t.Errorf("LinkTypeRTACSerial = %d, want 250", LinkTypeRTACSerial)
	}
}

func TestParseLinkType(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    layers.LinkType
		wantErr bool
	}{
		{"first user type", "USER0", LinkTypeUser0, false},
		{"last user type", "USER15", LinkTypeUser0 + 15, false},
		{"rtac serial", "RTAC_SERIAL", LinkTypeRTACSerial, false},
		{"lowercase", "user3", LinkTypeUser0 + 3, false},
		{"surrounding whitespace", " rtac_serial ", LinkTypeRTACSerial, false},
		{"raw", "RAW", layers.LinkTypeRaw, false},
		{"ethernet", "ETHERNET", layers.LinkTypeEthernet, false},
		{"unknown name", "USER16", 0, true},
		{"empty", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLinkType(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLinkType(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownLinkType) {
					t.Errorf("ParseLinkType(%q) error = %v, want ErrUnknownLinkType", tt.input, err)
				}
				return
			}
			if got != tt.want {
				t.Errorf("ParseLinkType(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestLinkTypeName(t *testing.T) {
	tests := []struct {
		lt   layers.LinkType
		want string
	}{
		{LinkTypeUser0, "USER0"},
		{LinkTypeUser0 + 15, "USER15"},
		{LinkTypeRTACSerial, "RTAC_SERIAL"},
		{layers.LinkTypeEthernet, "ETHERNET"},
		{layers.LinkType(200), "DLT200"},
	}

	for _, tt := range tests {
		if got := LinkTypeName(tt.lt); got != tt.want {
			t.Errorf("LinkTypeName(%d) = %q, want %q", int(tt.lt), got, tt.want)
		}
	}
}

func TestLinkTypeNamesSorted(t *testing.T) {
	names := LinkTypeNames()
	if len(names) == 0 {
		t.Fatal("LinkTypeNames() returned nothing")
	}

	var prev layers.LinkType
	for i, name := range names {
		lt, err := ParseLinkType(name)
		if err != nil {
			t.Fatalf("listed name %q does not parse: %v", name, err)
		}
		if i > 0 && lt <= prev {
			t.Errorf("names not sorted by tag: %q (%d) after %d", name, lt, prev)
		}
		prev = lt
	}

	if names[0] != "NULL" {
		t.Errorf("first name = %q, want NULL", names[0])
	}
	if names[len(names)-1] != "RTAC_SERIAL" {
		t.Errorf("last name = %q, want RTAC_SERIAL", names[len(names)-1])
	}
}
