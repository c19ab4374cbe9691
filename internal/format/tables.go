package format

import (
	"fmt"
	"strings"
)

// TileMode selects the GPU memory layout of a surface.
type TileMode uint16

const (
	// Optimal is the block-linear layout.
	Optimal TileMode = 0
	// Linear is pitch-linear, row-major.
	Linear TileMode = 1
)

func IsValidTileMode(m TileMode) bool {
	return m == Optimal || m == Linear
}

func (m TileMode) String() string {
	switch m {
	case Optimal:
		return "Optimal"
	case Linear:
		return "Linear"
	default:
		return fmt.Sprintf("TileMode(%d)", uint16(m))
	}
}

// ParseTileMode accepts the names printed by String, case-insensitively.
func ParseTileMode(s string) (TileMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "optimal", "tiled", "block-linear":
		return Optimal, nil
	case "linear":
		return Linear, nil
	default:
		return 0, fmt.Errorf("parse tile mode %q: %w", s, ErrUnsupportedTileMode)
	}
}

// AccessFlagFresh marks a surface authored by this tool (texture access).
const AccessFlagFresh uint32 = 0x20

var accessFlags = map[uint32]string{
	0x1:    "Read",
	0x2:    "Write",
	0x4:    "VertexBuffer",
	0x8:    "IndexBuffer",
	0x10:   "ConstantBuffer",
	0x20:   "Texture",
	0x40:   "UnorderedAccessBuffer",
	0x80:   "ColorBuffer",
	0x100:  "DepthStencil",
	0x200:  "IndirectBuffer",
	0x400:  "ScanBuffer",
	0x800:  "QueryBuffer",
	0x1000: "Descriptor",
	0x2000: "ShaderCode",
	0x4000: "Image",
}

// AccessFlagName falls back to the hex value for unknown flags.
func AccessFlagName(v uint32) string {
	if name, ok := accessFlags[v]; ok {
		return name
	}
	return fmt.Sprintf("0x%x", v)
}

// Texture types.
const (
	Type1D uint8 = iota
	Type2D
	Type3D
	TypeCube
	Type1DArray
	Type2DArray
	Type2DMultisample
	Type2DMultisampleArray
	TypeCubeArray
)

var types = []string{
	"Image 1D",
	"Image 2D",
	"Image 3D",
	"Cube Map",
	"Image 1D Array",
	"Image 2D Array",
	"Image 2D Multi-Sample",
	"Image 2D Multi-Sample Array",
	"Cube Map Array",
}

func TypeName(v uint8) string {
	if int(v) < len(types) {
		return types[v]
	}
	return "Unknown"
}

// Storage dimension of a surface.
const Dimension2D uint8 = 2

// Component selector values.
const (
	ChannelZero uint8 = iota
	ChannelOne
	ChannelRed
	ChannelGreen
	ChannelBlue
	ChannelAlpha
)

var channels = []string{"Zero", "One", "Red", "Green", "Blue", "Alpha"}

func ChannelName(v uint8) string {
	if int(v) < len(channels) {
		return channels[v]
	}
	return fmt.Sprintf("Channel(%d)", v)
}
