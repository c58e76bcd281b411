package enums

import "fmt"

// Network identifies the mobile carrier a data bundle is delivered on.
type Network string

const (
	NetworkMTN        Network = "mtn"
	NetworkTelecel    Network = "telecel"
	NetworkAirtelTigo Network = "airteltigo"
)

var validNetworks = []Network{
	NetworkMTN,
	NetworkTelecel,
	NetworkAirtelTigo,
}

// carrier prefixes after normalization to the local 0XXXXXXXXX form.
var networkPrefixes = map[Network][]string{
	NetworkMTN:        {"024", "025", "053", "054", "055", "059"},
	NetworkTelecel:    {"020", "050"},
	NetworkAirtelTigo: {"026", "027", "056", "057"},
}

// String implements fmt.Stringer.
func (n Network) String() string {
	return string(n)
}

// IsValid reports whether the value is a known Network.
func (n Network) IsValid() bool {
	for _, candidate := range validNetworks {
		if candidate == n {
			return true
		}
	}
	return false
}

// Prefixes returns the dialing prefixes served by the network.
func (n Network) Prefixes() []string {
	return networkPrefixes[n]
}

// AllowsBulk reports whether the carrier accepts bulk bundle orders.
// Telecel rejects batched provisioning requests upstream.
func (n Network) AllowsBulk() bool {
	return n != NetworkTelecel
}

// ParseNetwork converts raw input into a Network.
func ParseNetwork(value string) (Network, error) {
	for _, candidate := range validNetworks {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid network %q", value)
}
