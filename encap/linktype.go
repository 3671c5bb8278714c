package encap

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gopacket/gopacket/layers"
)

// Link-type tags the pcap ecosystem defines for serial capture but gopacket
// does not name
const (
	// LinkTypeUser0 opens the USER0..USER15 private-use range (147..162)
	LinkTypeUser0 layers.LinkType = 147
	// LinkTypeRTACSerial tags RTAC-style serial events: a 12-byte header
	// with timestamp, event type and control-line bitmask before the payload
	LinkTypeRTACSerial layers.LinkType = 250
)

// The name table is built once at package init and never mutated. Lookups
// in both directions go through these maps only.
var (
	linkTypeByName = buildLinkTypeNames()
	linkTypeNames  = invertLinkTypeNames(linkTypeByName)
)

func buildLinkTypeNames() map[string]layers.LinkType {
	m := map[string]layers.LinkType{
		"NULL":        layers.LinkTypeNull,
		"ETHERNET":    layers.LinkTypeEthernet,
		"PPP":         layers.LinkTypePPP,
		"RAW":         layers.LinkTypeRaw,
		"LINUX_SLL":   layers.LinkTypeLinuxSLL,
		"RTAC_SERIAL": LinkTypeRTACSerial,
	}
	for i := 0; i < 16; i++ {
		m[fmt.Sprintf("USER%d", i)] = LinkTypeUser0 + layers.LinkType(i)
	}
	return m
}

func invertLinkTypeNames(byName map[string]layers.LinkType) map[layers.LinkType]string {
	m := make(map[layers.LinkType]string, len(byName))
	for name, lt := range byName {
		m[lt] = name
	}
	return m
}

// ParseLinkType resolves a link-type name to its pcap tag. Names are
// case-insensitive.
func ParseLinkType(name string) (layers.LinkType, error) {
	lt, ok := linkTypeByName[strings.ToUpper(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownLinkType, name)
	}
	return lt, nil
}

// LinkTypeName returns the canonical name for a tag, or "DLT<n>" for tags
// outside the table
func LinkTypeName(lt layers.LinkType) string {
	if name, ok := linkTypeNames[lt]; ok {
		return name
	}
	return fmt.Sprintf("DLT%d", int(lt))
}

// LinkTypeNames lists all known link-type names sorted by tag value, for
// flag help and the formats listing
func LinkTypeNames() []string {
	names := make([]string, 0, len(linkTypeByName))
	for name := range linkTypeByName {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return linkTypeByName[names[i]] < linkTypeByName[names[j]]
	})
	return names
}
