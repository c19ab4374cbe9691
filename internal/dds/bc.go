package dds

import (
	"encoding/binary"
	"image/color"
	"math"
)

// block is one 4x4 tile of pixels in row-major order.
type block [16]color.RGBA

// alphaBlock packs the BC3 alpha half: two endpoints and sixteen 3-bit
// indices into the 8-entry ramp they define.
func alphaBlock(px block) [8]byte {
	lo, hi := uint8(255), uint8(0)
	for _, p := range px {
		lo = min(lo, p.A)
		hi = max(hi, p.A)
	}

	var ramp [8]uint8
	ramp[0], ramp[1] = hi, lo
	if hi > lo {
		for i := 1; i <= 6; i++ {
			ramp[1+i] = uint8((uint32((7-i)*int(hi)+i*int(lo)) + 3) / 7)
		}
	} else {
		for i := 1; i <= 4; i++ {
			ramp[1+i] = uint8((uint32((5-i)*int(hi)+i*int(lo)) + 2) / 5)
		}
		ramp[6], ramp[7] = 0, 255
	}

	var bits uint64
	for i, p := range px {
		best, bestDist := 0, math.MaxInt
		for j, a := range ramp {
			d := int(p.A) - int(a)
			if d*d < bestDist {
				best, bestDist = j, d*d
			}
		}
		bits |= uint64(best) << (3 * i)
	}

	var out [8]byte
	out[0], out[1] = hi, lo
	for i := range 6 {
		out[2+i] = byte(bits >> (8 * i))
	}
	return out
}

type vec3 [3]float64

func (a vec3) dot(b vec3) float64 { return a[0]*b[0] + a[1]*b[1] + a[2]*b[2] }
func (a vec3) add(b vec3) vec3    { return vec3{a[0] + b[0], a[1] + b[1], a[2] + b[2]} }
func (a vec3) scale(s float64) vec3 {
	return vec3{a[0] * s, a[1] * s, a[2] * s}
}

func (a vec3) unit() vec3 {
	n := math.Sqrt(a.dot(a))
	if n == 0 {
		return vec3{}
	}
	return a.scale(1 / n)
}

// colorBlock packs the BC1 color half. Endpoints come from the principal
// axis of the block's colors.
func colorBlock(px block) [8]byte {
	var mean vec3
	for _, p := range px {
		mean = mean.add(vec3{float64(p.R), float64(p.G), float64(p.B)})
	}
	mean = mean.scale(1.0 / 16)

	var cov [3][3]float64
	for _, p := range px {
		d := vec3{float64(p.R) - mean[0], float64(p.G) - mean[1], float64(p.B) - mean[2]}
		for r := range 3 {
			for c := range 3 {
				cov[r][c] += d[r] * d[c]
			}
		}
	}
	axis := principalAxis(cov)

	lo, hi := math.MaxFloat64, -math.MaxFloat64
	for _, p := range px {
		proj := vec3{float64(p.R), float64(p.G), float64(p.B)}.dot(axis)
		lo = min(lo, proj)
		hi = max(hi, proj)
	}
	center := mean.dot(axis)
	c0 := to565(mean.add(axis.scale(hi - center)))
	c1 := to565(mean.add(axis.scale(lo - center)))
	if c0 < c1 {
		c0, c1 = c1, c0
	}

	var out [8]byte
	binary.LittleEndian.PutUint16(out[0:], c0)
	binary.LittleEndian.PutUint16(out[2:], c1)
	if c0 == c1 {
		// Equal endpoints select the three color mode; index 0 is still exact.
		return out
	}

	e0, e1 := from565(c0), from565(c1)
	var palette [4][3]uint8
	palette[0], palette[1] = e0, e1
	for i := range 3 {
		palette[2][i] = uint8((2*uint16(e0[i]) + uint16(e1[i]) + 1) / 3)
		palette[3][i] = uint8((uint16(e0[i]) + 2*uint16(e1[i]) + 1) / 3)
	}

	var indices uint32
	for i, p := range px {
		best, bestDist := 0, math.MaxInt
		for j, c := range palette {
			dr := int(p.R) - int(c[0])
			dg := int(p.G) - int(c[1])
			db := int(p.B) - int(c[2])
			if d := dr*dr + dg*dg + db*db; d < bestDist {
				best, bestDist = j, d
			}
		}
		indices |= uint32(best) << (2 * i)
	}
	binary.LittleEndian.PutUint32(out[4:], indices)
	return out
}

// principalAxis runs a few rounds of power iteration on the covariance
// matrix. Five rounds are enough for 16 samples.
func principalAxis(m [3][3]float64) vec3 {
	v := vec3{1, 1, 1}.unit()
	for range 5 {
		next := vec3{
			m[0][0]*v[0] + m[0][1]*v[1] + m[0][2]*v[2],
			m[1][0]*v[0] + m[1][1]*v[1] + m[1][2]*v[2],
			m[2][0]*v[0] + m[2][1]*v[1] + m[2][2]*v[2],
		}.unit()
		if next == (vec3{}) {
			break
		}
		v = next
	}
	return v
}

func to565(c vec3) uint16 {
	q := func(f float64) uint32 { return uint32(math.Round(math.Max(0, math.Min(255, f)))) }
	return uint16(q(c[0])>>3<<11 | q(c[1])>>2<<5 | q(c[2])>>3)
}

func from565(v uint16) [3]uint8 {
	r := uint8(v >> 11 & 0x1f)
	g := uint8(v >> 5 & 0x3f)
	b := uint8(v & 0x1f)
	return [3]uint8{r<<3 | r>>2, g<<2 | g>>4, b<<3 | b>>2}
}
