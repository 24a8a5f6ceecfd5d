// This file is part of gopsx.
//
// gopsx is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// gopsx is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with gopsx.  If not, see <https://www.gnu.org/licenses/>.

package gpu

// Vertex is a rasterizer-space position plus its texture coordinate, in
// the units the command stream supplies them (signed 11-bit position,
// 8-bit UV).
type Vertex struct {
	X, Y int32
	U, V uint8
}

// ditherTable is the 4x4 ordered offset pattern applied to each channel
// before re-quantizing to 5 bits, gated by GP0(E1) bit 9.
var ditherTable = [4][4]int32{
	{-4, 0, -3, 1},
	{2, -2, 3, -1},
	{-3, 1, -4, 0},
	{3, -1, 2, -2},
}

func ditherOffset(x, y int32) int32 {
	return ditherTable[y&3][x&3]
}

func clamp8(v int32) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

func (c Color) dither(x, y int32) Color {
	off := ditherOffset(x, y)
	return Color{
		R: clamp8(int32(c.R) + off),
		G: clamp8(int32(c.G) + off),
		B: clamp8(int32(c.B) + off),
	}
}

// execPolygon parses the buffered command + parameter words and rasterizes
// a 3- or 4-vertex primitive, splitting quads into two triangles (0,1,2)
// and (1,2,3).
func (g *GPU) execPolygon() {
	cmd := g.cmdWord
	gouraud := cmd&(1<<28) != 0
	quad := cmd&(1<<27) != 0
	textured := cmd&(1<<26) != 0
	semiTransparent := cmd&(1<<25) != 0
	rawTexture := cmd&(1<<24) != 0

	vertices := 3
	if quad {
		vertices = 4
	}

	verts := make([]Vertex, vertices)
	colors := make([]Color, vertices)
	colors[0] = colorFromCmdWord(cmd)

	idx := 0
	var clutX, clutY uint32
	var texpageWord uint32
	for i := 0; i < vertices; i++ {
		if i > 0 && gouraud {
			colors[i] = colorFromCmdWord(g.params[idx])
			idx++
		} else if i > 0 {
			colors[i] = colors[0]
		}
		pos := g.params[idx]
		idx++
		verts[i].X = signExtend11(pos&0x7ff) + g.drawOffsetX
		verts[i].Y = signExtend11((pos>>11)&0x7ff) + g.drawOffsetY
		if textured {
			uv := g.params[idx]
			idx++
			verts[i].U = uint8(uv)
			verts[i].V = uint8(uv >> 8)
			if i == 0 {
				clutX = (uv >> 16) & 0x3f
				clutY = (uv >> 22) & 0x1ff
			} else if i == 1 {
				texpageWord = (uv >> 16) & 0xffff
			}
		}
	}

	tp := g.page
	if textured {
		tp.baseX = texpageWord & 0xf
		tp.baseY = (texpageWord >> 4) & 1
		tp.semiTransparency = SemiTransparency((texpageWord >> 5) & 3)
		tp.depth = TextureDepth((texpageWord >> 7) & 3)
	}

	if !g.clipOK(verts) {
		return
	}

	if quad {
		g.fillTriangle(verts[0], verts[1], verts[2], colors[0], colors[1], colors[2],
			gouraud, textured, rawTexture, semiTransparent, tp, clutX, clutY)
		g.fillTriangle(verts[1], verts[2], verts[3], colors[1], colors[2], colors[3],
			gouraud, textured, rawTexture, semiTransparent, tp, clutX, clutY)
	} else {
		g.fillTriangle(verts[0], verts[1], verts[2], colors[0], colors[1], colors[2],
			gouraud, textured, rawTexture, semiTransparent, tp, clutX, clutY)
	}
}

func colorFromCmdWord(w uint32) Color {
	return Color{R: uint8(w), G: uint8(w >> 8), B: uint8(w >> 16)}
}

// clipOK rejects primitives whose vertex spread exceeds the documented
// horizontal/vertical limits; real hardware drops these silently rather
// than wrapping or asserting.
func (g *GPU) clipOK(verts []Vertex) bool {
	for i := 0; i < len(verts); i++ {
		for j := i + 1; j < len(verts); j++ {
			dx := verts[i].X - verts[j].X
			dy := verts[i].Y - verts[j].Y
			if dx < 0 {
				dx = -dx
			}
			if dy < 0 {
				dy = -dy
			}
			if dx > 1023 || dy > 511 {
				return false
			}
		}
	}
	return true
}

// edge is the standard 2D cross-product edge function; its sign tells
// which side of the directed edge a-b a point p falls on.
func edge(ax, ay, bx, by, px, py int32) int32 {
	return (bx-ax)*(py-ay) - (by-ay)*(px-ax)
}

// topLeft reports whether edge a->b is a "top" or "left" edge under the
// standard top-left fill-convention rule, used to make shared edges
// between adjacent triangles render exactly once.
func topLeft(ax, ay, bx, by int32) bool {
	if ay == by {
		return bx > ax
	}
	return by < ay
}

func (g *GPU) fillTriangle(v0, v1, v2 Vertex, c0, c1, c2 Color, gouraud, textured, raw, semiTransparent bool, tp texpage, clutX, clutY uint32) {
	minX := min3(v0.X, v1.X, v2.X)
	maxX := max3(v0.X, v1.X, v2.X)
	minY := min3(v0.Y, v1.Y, v2.Y)
	maxY := max3(v0.Y, v1.Y, v2.Y)

	minX = clampi32(minX, g.drawAreaX1, g.drawAreaX2)
	maxX = clampi32(maxX, g.drawAreaX1, g.drawAreaX2)
	minY = clampi32(minY, g.drawAreaY1, g.drawAreaY2)
	maxY = clampi32(maxY, g.drawAreaY1, g.drawAreaY2)

	area := edge(v0.X, v0.Y, v1.X, v1.Y, v2.X, v2.Y)
	if area == 0 {
		return
	}

	bias0, bias1, bias2 := int32(0), int32(0), int32(0)
	if !topLeft(v1.X, v1.Y, v2.X, v2.Y) {
		bias0 = -1
	}
	if !topLeft(v2.X, v2.Y, v0.X, v0.Y) {
		bias1 = -1
	}
	if !topLeft(v0.X, v0.Y, v1.X, v1.Y) {
		bias2 = -1
	}

	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			w0 := edge(v1.X, v1.Y, v2.X, v2.Y, x, y) + bias0
			w1 := edge(v2.X, v2.Y, v0.X, v0.Y, x, y) + bias1
			w2 := edge(v0.X, v0.Y, v1.X, v1.Y, x, y) + bias2
			if area > 0 {
				if w0 < 0 || w1 < 0 || w2 < 0 {
					continue
				}
			} else {
				if w0 > 0 || w1 > 0 || w2 > 0 {
					continue
				}
			}

			var shade Color
			if gouraud {
				shade = barycentricColor(c0, c1, c2, w0, w1, w2, area)
			} else {
				shade = c0
			}

			var out Color
			haveTexel := true
			if textured {
				u := barycentricU(v0, v1, v2, w0, w1, w2, area)
				vv := barycentricV(v0, v1, v2, w0, w1, w2, area)
				texel, transparent := g.sampleTexture(tp, clutX, clutY, u, vv)
				if transparent {
					haveTexel = false
				} else if raw {
					out = texel
				} else {
					out = texel.Modulate(shade)
				}
			} else {
				out = shade
				if tp.dither {
					out = out.dither(x, y)
				}
			}
			if !haveTexel {
				continue
			}

			if semiTransparent && (!textured || !raw) {
				out = g.blend(uint32(x), uint32(y), out, tp.semiTransparency)
			}
			g.writeMaybeProtected(uint32(x), uint32(y), out.ToU16(g.forceMaskBit))
		}
	}
}

func barycentricColor(c0, c1, c2 Color, w0, w1, w2, area int32) Color {
	l0 := float64(w0) / float64(area)
	l1 := float64(w1) / float64(area)
	l2 := float64(w2) / float64(area)
	mix := func(a, b, c uint8) uint8 {
		v := l0*float64(a) + l1*float64(b) + l2*float64(c)
		return clamp8(int32(v))
	}
	return Color{R: mix(c0.R, c1.R, c2.R), G: mix(c0.G, c1.G, c2.G), B: mix(c0.B, c1.B, c2.B)}
}

func barycentricU(v0, v1, v2 Vertex, w0, w1, w2, area int32) uint8 {
	l0 := float64(w0) / float64(area)
	l1 := float64(w1) / float64(area)
	l2 := float64(w2) / float64(area)
	return uint8(l0*float64(v0.U) + l1*float64(v1.U) + l2*float64(v2.U))
}

func barycentricV(v0, v1, v2 Vertex, w0, w1, w2, area int32) uint8 {
	l0 := float64(w0) / float64(area)
	l1 := float64(w1) / float64(area)
	l2 := float64(w2) / float64(area)
	return uint8(l0*float64(v0.V) + l1*float64(v1.V) + l2*float64(v2.V))
}

func min3(a, b, c int32) int32 {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

func max3(a, b, c int32) int32 {
	m := a
	if b > m {
		m = b
	}
	if c > m {
		m = c
	}
	return m
}

func clampi32(v, lo, hi int32) int32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// sampleTexture reduces (u,v) through the texture window, reads the texel
// at the configured depth (going through the CLUT for 4/8bpp), and reports
// whether the sample is the transparent sentinel 0x0000.
func (g *GPU) sampleTexture(tp texpage, clutX, clutY uint32, u, v uint8) (Color, bool) {
	ru := (uint32(u) &^ (g.textureWindowMaskX * 8)) | ((g.textureWindowOffsetX & g.textureWindowMaskX) * 8)
	rv := (uint32(v) &^ (g.textureWindowMaskY * 8)) | ((g.textureWindowOffsetY & g.textureWindowMaskY) * 8)

	texBaseX := tp.baseX * 64
	texBaseY := tp.baseY * 256

	var raw uint16
	switch tp.depth {
	case Tex4Bit:
		word := g.readVRAM(texBaseX+ru/4, texBaseY+rv)
		nibble := (word >> ((ru % 4) * 4)) & 0xf
		raw = g.readVRAM(clutX*16+uint32(nibble), clutY)
	case Tex8Bit:
		word := g.readVRAM(texBaseX+ru/2, texBaseY+rv)
		b := (word >> ((ru % 2) * 8)) & 0xff
		raw = g.readVRAM(clutX*16+uint32(b), clutY)
	default:
		raw = g.readVRAM(texBaseX+ru, texBaseY+rv)
	}
	if raw == 0 {
		return Color{}, true
	}
	return ColorFromU16(raw), false
}

// blend applies one of the four semi-transparency formulas against the
// current back-buffer pixel, saturating each 8-bit channel to 0-255.
func (g *GPU) blend(x, y uint32, front Color, mode SemiTransparency) Color {
	back := ColorFromU16(g.readVRAM(x, y))
	op := func(b, f uint8) uint8 {
		switch mode {
		case HalfBackHalfFront:
			return clamp8(int32(b)/2 + int32(f)/2)
		case AddBackFront:
			return clamp8(int32(b) + int32(f))
		case SubBackFront:
			return clamp8(int32(b) - int32(f))
		case AddBackQuarterFront:
			return clamp8(int32(b) + int32(f)/4)
		}
		return f
	}
	return Color{R: op(back.R, front.R), G: op(back.G, front.G), B: op(back.B, front.B)}
}

// execLine rasterizes the single two-point line buffered by WriteGP0.
func (g *GPU) execLine() {
	cmd := g.cmdWord
	gouraud := cmd&(1<<28) != 0
	semiTransparent := cmd&(1<<25) != 0

	c0 := colorFromCmdWord(cmd)
	idx := 0
	pos0 := g.params[idx]
	idx++
	var c1 Color
	if gouraud {
		c1 = colorFromCmdWord(g.params[idx])
		idx++
	} else {
		c1 = c0
	}
	pos1 := g.params[idx]

	x0 := signExtend11(pos0&0x7ff) + g.drawOffsetX
	y0 := signExtend11((pos0>>11)&0x7ff) + g.drawOffsetY
	x1 := signExtend11(pos1&0x7ff) + g.drawOffsetX
	y1 := signExtend11((pos1>>11)&0x7ff) + g.drawOffsetY

	g.drawLine(x0, y0, x1, y1, c0, c1, semiTransparent)
}

func (g *GPU) drawLine(x0, y0, x1, y1 int32, c0, c1 Color, semiTransparent bool) {
	dx := x1 - x0
	if dx < 0 {
		dx = -dx
	}
	dy := y1 - y0
	if dy < 0 {
		dy = -dy
	}
	steps := dx
	if dy > steps {
		steps = dy
	}
	if steps == 0 {
		g.putLinePixel(x0, y0, c0, semiTransparent)
		return
	}

	sx := int32(1)
	if x0 > x1 {
		sx = -1
	}
	sy := int32(1)
	if y0 > y1 {
		sy = -1
	}
	dx2 := dx * 2
	dy2 := dy * 2
	x, y := x0, y0
	if dx >= dy {
		errAcc := dy2 - dx
		for i := int32(0); i <= dx; i++ {
			t := float64(i) / float64(dx)
			g.putLinePixel(x, y, lerpColor(c0, c1, t), semiTransparent)
			if errAcc > 0 {
				y += sy
				errAcc -= dx2
			}
			errAcc += dy2
			x += sx
		}
	} else {
		errAcc := dx2 - dy
		for i := int32(0); i <= dy; i++ {
			t := float64(i) / float64(dy)
			g.putLinePixel(x, y, lerpColor(c0, c1, t), semiTransparent)
			if errAcc > 0 {
				x += sx
				errAcc -= dy2
			}
			errAcc += dx2
			y += sy
		}
	}
}

func lerpColor(a, b Color, t float64) Color {
	mix := func(x, y uint8) uint8 { return clamp8(int32(float64(x) + (float64(y)-float64(x))*t)) }
	return Color{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B)}
}

func (g *GPU) putLinePixel(x, y int32, c Color, semiTransparent bool) {
	if x < g.drawAreaX1 || x > g.drawAreaX2 || y < g.drawAreaY1 || y > g.drawAreaY2 {
		return
	}
	if semiTransparent {
		c = g.blend(uint32(x), uint32(y), c, g.page.semiTransparency)
	}
	g.writeMaybeProtected(uint32(x), uint32(y), c.ToU16(g.forceMaskBit))
}

// execRectangle handles GP0 0x60-0x7F: fixed {1,8,16}px or variable-size
// flat/textured rectangles. Dithering never applies to rectangles.
func (g *GPU) execRectangle() {
	cmd := g.cmdWord
	textured := cmd&(1<<26) != 0
	semiTransparent := cmd&(1<<25) != 0
	raw := cmd&(1<<24) != 0
	size := (cmd >> 27) & 3

	color := colorFromCmdWord(cmd)
	idx := 0
	pos := g.params[idx]
	idx++
	x0 := signExtend11(pos&0x7ff) + g.drawOffsetX
	y0 := signExtend11((pos>>11)&0x7ff) + g.drawOffsetY

	var u0, v0 uint8
	var clutX, clutY uint32
	if textured {
		uv := g.params[idx]
		idx++
		u0 = uint8(uv)
		v0 = uint8(uv >> 8)
		clutX = (uv >> 16) & 0x3f
		clutY = (uv >> 22) & 0x1ff
	}

	var w, h int32
	switch size {
	case 1:
		w, h = 1, 1
	case 2:
		w, h = 8, 8
	case 3:
		w, h = 16, 16
	default:
		dim := g.params[idx]
		w = int32(dim & 0x3ff)
		h = int32((dim >> 16) & 0x1ff)
	}

	tp := g.page
	for row := int32(0); row < h; row++ {
		for col := int32(0); col < w; col++ {
			x := x0 + col
			y := y0 + row
			if x < g.drawAreaX1 || x > g.drawAreaX2 || y < g.drawAreaY1 || y > g.drawAreaY2 {
				continue
			}
			var out Color
			ok := true
			if textured {
				u := u0 + uint8(col)
				v := v0 + uint8(row)
				texel, transparent := g.sampleTexture(tp, clutX, clutY, u, v)
				if transparent {
					ok = false
				} else if raw {
					out = texel
				} else {
					out = texel.Modulate(color)
				}
			} else {
				out = color
			}
			if !ok {
				continue
			}
			if semiTransparent && (!textured || !raw) {
				out = g.blend(uint32(x), uint32(y), out, tp.semiTransparency)
			}
			g.writeMaybeProtected(uint32(x), uint32(y), out.ToU16(g.forceMaskBit))
		}
	}
}

// startPolyline begins a WaitingPolyline run; each subsequent word is
// either a terminator or the next vertex (plus a leading color word when
// Gouraud-shaded).
func (g *GPU) startPolyline(cmd uint32) {
	g.cmdWord = cmd
	g.polyline = polylineState{
		shaded:          cmd&(1<<28) != 0,
		semiTransparent: cmd&(1<<25) != 0,
	}
	g.polyline.colors = append(g.polyline.colors, colorFromCmdWord(cmd))
	g.gp0state = gp0WaitingPolyline
}

const polylineTerminator = 0x50005000

func (g *GPU) feedPolylineWord(word uint32) {
	if word&0xf000f000 == polylineTerminator {
		g.gp0state = gp0WaitingCommand
		return
	}
	if g.polyline.shaded && len(g.polyline.vertices) > 0 && len(g.polyline.colors) <= len(g.polyline.vertices) {
		g.polyline.colors = append(g.polyline.colors, colorFromCmdWord(word))
		return
	}
	x := signExtend11(word&0x7ff) + g.drawOffsetX
	y := signExtend11((word>>11)&0x7ff) + g.drawOffsetY
	g.polyline.vertices = append(g.polyline.vertices, Vertex{X: x, Y: y})

	n := len(g.polyline.vertices)
	if n >= 2 {
		c0 := g.polyline.colors[n-2]
		c1 := c0
		if g.polyline.shaded && n-1 < len(g.polyline.colors) {
			c1 = g.polyline.colors[n-1]
		}
		v0, v1 := g.polyline.vertices[n-2], g.polyline.vertices[n-1]
		g.drawLine(v0.X, v0.Y, v1.X, v1.Y, c0, c1, g.polyline.semiTransparent)
	}
}
