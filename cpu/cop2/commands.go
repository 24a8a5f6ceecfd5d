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

package cop2

// transform computes the raw (unshifted, 12-bit-fraction) dot product of
// matrix m against vector v plus translation t<<12, for each of the three
// rows. Callers apply the sf-controlled shift themselves.
func (g *GTE) transform(m Matrix3, v [3]int32, t Vector32) (mac1, mac2, mac3 int64) {
	mac1 = int64(t.X)<<12 + int64(m[0][0])*int64(v[0]) + int64(m[0][1])*int64(v[1]) + int64(m[0][2])*int64(v[2])
	mac2 = int64(t.Y)<<12 + int64(m[1][0])*int64(v[0]) + int64(m[1][1])*int64(v[1]) + int64(m[1][2])*int64(v[2])
	mac3 = int64(t.Z)<<12 + int64(m[2][0])*int64(v[0]) + int64(m[2][1])*int64(v[1]) + int64(m[2][2])*int64(v[2])
	return
}

func shiftIf(v int64, sf bool) int64 {
	if sf {
		return v >> 12
	}
	return v
}

func (g *GTE) setMACIR123(mac1, mac2, mac3 int64, sf, lm bool) {
	s1, s2, s3 := shiftIf(mac1, sf), shiftIf(mac2, sf), shiftIf(mac3, sf)
	g.MAC1, g.MAC2, g.MAC3 = s1, s2, s3
	g.IR1 = g.saturateIR(s1, lm, flagIR1Sat)
	g.IR2 = g.saturateIR(s2, lm, flagIR2Sat)
	g.IR3 = g.saturateIR(s3, lm, flagIR3Sat)
}

// vecOf returns the signed int32 components of a 16-bit vector register.
func vecOf(v Vector16) [3]int32 { return [3]int32{int32(v.X), int32(v.Y), int32(v.Z)} }

// selectMatrix resolves the mx (multiply-matrix) field of MVMVA.
func (g *GTE) selectMatrix(mx uint32) Matrix3 {
	switch mx {
	case 0:
		return g.RT
	case 1:
		return g.L
	case 2:
		return g.LCM
	default:
		return Matrix3{} // "garbage"/reserved selector; zero matrix is a safe stand-in
	}
}

func (g *GTE) selectVector(sv uint32) [3]int32 {
	switch sv {
	case 0:
		return vecOf(g.V[0])
	case 1:
		return vecOf(g.V[1])
	case 2:
		return vecOf(g.V[2])
	default:
		return [3]int32{int32(g.IR1), int32(g.IR2), int32(g.IR3)}
	}
}

func (g *GTE) selectTranslation(cv uint32) Vector32 {
	switch cv {
	case 0:
		return g.TR
	case 1:
		return g.BK
	case 2:
		return g.FC
	default:
		return Vector32{}
	}
}

// rtpSingle implements the per-vertex perspective-transform-and-project
// pipeline shared by RTPS and RTPT.
func (g *GTE) rtpSingle(v Vector16, sf bool) {
	mac1, mac2, mac3 := g.transform(g.RT, vecOf(v), g.TR)
	g.setMACIR123(mac1, mac2, mac3, sf, false)

	sz := g.saturateSZ(mac3 >> 12)
	g.pushSZ(sz)

	quotient := int64(g.unrDivide(g.H, sz))

	macX := quotient*int64(g.IR1) + int64(g.OFX)
	macY := quotient*int64(g.IR2) + int64(g.OFY)
	sx := g.saturateSXY(macX>>16, flagSX2Sat)
	sy := g.saturateSXY(macY>>16, flagSY2Sat)
	g.pushSXY(sx, sy)

	macZ := quotient*int64(g.DQA) + int64(g.DQB)
	g.MAC0 = int32(macZ)
	ir0 := macZ >> 12
	if ir0 < 0 {
		g.setFlag(flagIR0Sat)
		ir0 = 0
	}
	if ir0 > 0x1000 {
		g.setFlag(flagIR0Sat)
		ir0 = 0x1000
	}
	g.IR0 = int32(ir0)
}

func (g *GTE) opRTPS(a cmdArgs) {
	g.rtpSingle(g.V[0], a.sf)
}

func (g *GTE) opRTPT(a cmdArgs) {
	g.rtpSingle(g.V[0], a.sf)
	g.rtpSingle(g.V[1], a.sf)
	g.rtpSingle(g.V[2], a.sf)
}

// opNCLIP computes the cross-product "normal clip" scalar used to test
// triangle winding: SX0*(SY1-SY2) + SX1*(SY2-SY0) + SX2*(SY0-SY1).
func (g *GTE) opNCLIP(a cmdArgs) {
	x0, y0 := int64(g.SXY[0].X), int64(g.SXY[0].Y)
	x1, y1 := int64(g.SXY[1].X), int64(g.SXY[1].Y)
	x2, y2 := int64(g.SXY[2].X), int64(g.SXY[2].Y)
	v := x0*(y1-y2) + x1*(y2-y0) + x2*(y0-y1)
	g.MAC0 = int32(g.saturate(v, -(1 << 31), (1<<31)-1, flagMAC0Neg))
}

// opOP computes the outer product of IR and the RT matrix diagonal,
// used for surface-normal style lighting shortcuts.
func (g *GTE) opOP(a cmdArgs) {
	d1, d2, d3 := int64(g.RT[0][0]), int64(g.RT[1][1]), int64(g.RT[2][2])
	ir1, ir2, ir3 := int64(g.IR1), int64(g.IR2), int64(g.IR3)
	mac1 := d2*ir3 - d3*ir2
	mac2 := d3*ir1 - d1*ir3
	mac3 := d1*ir2 - d2*ir1
	g.setMACIR123(mac1, mac2, mac3, a.sf, a.lm)
}

// depthCue applies the shared depth-cueing blend: result = (FC<<12 - color<<12)*IR0 + color<<12,
// shifted per sf, then saturated into RGB and pushed to the colour FIFO.
func (g *GTE) depthCue(r, gc, b int32, sf, lm bool) {
	base := [3]int64{int64(r) << 12, int64(gc) << 12, int64(b) << 12}
	fc := [3]int64{int64(g.FC.X), int64(g.FC.Y), int64(g.FC.Z)}
	var mac [3]int64
	for i := 0; i < 3; i++ {
		diff := (fc[i] << 12) - base[i]
		diff = shiftIf(diff, sf)
		mac[i] = shiftIf(diff*int64(g.IR0)+base[i], sf)
	}
	g.setMACIR123(mac[0], mac[1], mac[2], sf, lm)
	g.pushColorFromIR()
}

func (g *GTE) pushColorFromIR() {
	c := Color{
		R:    g.saturateColor(int64(g.IR1)>>4, flagColorRSat),
		G:    g.saturateColor(int64(g.IR2)>>4, flagColorGSat),
		B:    g.saturateColor(int64(g.IR3)>>4, flagColorBSat),
		Code: g.RGBC.Code,
	}
	g.pushRGB(c)
	g.RGBC = c
}

func (g *GTE) opDPCS(a cmdArgs) {
	g.depthCue(int32(g.RGBC.R)<<4, int32(g.RGBC.G)<<4, int32(g.RGBC.B)<<4, a.sf, a.lm)
}

func (g *GTE) opDPCT(a cmdArgs) {
	for i := 0; i < 3; i++ {
		c := g.RGBFIFO[i]
		g.depthCue(int32(c.R)<<4, int32(c.G)<<4, int32(c.B)<<4, a.sf, a.lm)
	}
}

func (g *GTE) opDCPL(a cmdArgs) {
	r := int32(g.RGBC.R) << 4 * int32(g.IR1) >> 12
	gc := int32(g.RGBC.G) << 4 * int32(g.IR2) >> 12
	b := int32(g.RGBC.B) << 4 * int32(g.IR3) >> 12
	g.depthCue(r, gc, b, a.sf, a.lm)
}

// opINTPL blends IR with the far-colour vector using IR0 as the interpolation factor.
func (g *GTE) opINTPL(a cmdArgs) {
	ir := [3]int64{int64(g.IR1), int64(g.IR2), int64(g.IR3)}
	fc := [3]int64{int64(g.FC.X), int64(g.FC.Y), int64(g.FC.Z)}
	var mac [3]int64
	for i := 0; i < 3; i++ {
		diff := shiftIf((fc[i]<<12)-(ir[i]<<12), a.sf)
		mac[i] = shiftIf(diff*int64(g.IR0)+(ir[i]<<12), a.sf)
	}
	g.setMACIR123(mac[0], mac[1], mac[2], a.sf, a.lm)
	g.pushColorFromIR()
}

// opMVMVA is the generalised matrix*vector+translation instruction that the
// lighting commands are built from.
func (g *GTE) opMVMVA(a cmdArgs) {
	m := g.selectMatrix(a.mx)
	v := g.selectVector(a.sv)
	t := g.selectTranslation(a.cv)
	mac1, mac2, mac3 := g.transform(m, v, t)
	g.setMACIR123(mac1, mac2, mac3, a.sf, a.lm)
}

// lightAndColor runs the two-stage "light direction then light colour"
// pipeline shared by NCS/NCDS/NCCS and friends, for a single input vector.
func (g *GTE) lightAndColor(v Vector16, withColor, withDepthCue bool, a cmdArgs) {
	mac1, mac2, mac3 := g.transform(g.L, vecOf(v), Vector32{})
	g.setMACIR123(mac1, mac2, mac3, a.sf, true)

	ir := [3]int32{g.IR1, g.IR2, g.IR3}
	mac1, mac2, mac3 = g.transform(g.LCM, ir, g.BK)
	g.setMACIR123(mac1, mac2, mac3, a.sf, true)

	if !withColor {
		g.pushColorFromIR()
		return
	}

	r := int32(g.IR1) * int32(g.RGBC.R) << 4 >> 12
	gc := int32(g.IR2) * int32(g.RGBC.G) << 4 >> 12
	b := int32(g.IR3) * int32(g.RGBC.B) << 4 >> 12

	if withDepthCue {
		g.depthCue(r, gc, b, a.sf, a.lm)
		return
	}

	g.setMACIR123(int64(r)<<12, int64(gc)<<12, int64(b)<<12, a.sf, a.lm)
	g.pushColorFromIR()
}

func (g *GTE) opNCS(a cmdArgs)  { g.lightAndColor(g.V[0], false, false, a) }
func (g *GTE) opNCT(a cmdArgs) {
	g.lightAndColor(g.V[0], false, false, a)
	g.lightAndColor(g.V[1], false, false, a)
	g.lightAndColor(g.V[2], false, false, a)
}
func (g *GTE) opNCDS(a cmdArgs) { g.lightAndColor(g.V[0], true, true, a) }
func (g *GTE) opNCDT(a cmdArgs) {
	g.lightAndColor(g.V[0], true, true, a)
	g.lightAndColor(g.V[1], true, true, a)
	g.lightAndColor(g.V[2], true, true, a)
}
func (g *GTE) opNCCS(a cmdArgs) { g.lightAndColor(g.V[0], true, false, a) }
func (g *GTE) opNCCT(a cmdArgs) {
	g.lightAndColor(g.V[0], true, false, a)
	g.lightAndColor(g.V[1], true, false, a)
	g.lightAndColor(g.V[2], true, false, a)
}

// opCDP lights V0 through the L/LCM pipeline then applies depth cueing
// against the current RGBC colour, without the RGBC colour multiply step.
func (g *GTE) opCDP(a cmdArgs) {
	mac1, mac2, mac3 := g.transform(g.L, vecOf(g.V[0]), Vector32{})
	g.setMACIR123(mac1, mac2, mac3, a.sf, true)
	ir := [3]int32{g.IR1, g.IR2, g.IR3}
	mac1, mac2, mac3 = g.transform(g.LCM, ir, g.BK)
	g.setMACIR123(mac1, mac2, mac3, a.sf, true)
	g.depthCue(int32(g.RGBC.R)<<4, int32(g.RGBC.G)<<4, int32(g.RGBC.B)<<4, a.sf, a.lm)
}

// opCC multiplies RGBC by IR (no lighting stage), used when a normal
// direction has already been resolved into IR by a prior NC* command.
func (g *GTE) opCC(a cmdArgs) {
	r := int32(g.IR1) * int32(g.RGBC.R) << 4
	gc := int32(g.IR2) * int32(g.RGBC.G) << 4
	b := int32(g.IR3) * int32(g.RGBC.B) << 4
	g.setMACIR123(int64(r), int64(gc), int64(b), a.sf, a.lm)
	g.pushColorFromIR()
}

// opGPF: general-purpose colour multiply of IR0 against the colour FIFO IR.
func (g *GTE) opGPF(a cmdArgs) {
	mac1 := int64(g.IR0) * int64(g.IR1)
	mac2 := int64(g.IR0) * int64(g.IR2)
	mac3 := int64(g.IR0) * int64(g.IR3)
	g.setMACIR123(mac1, mac2, mac3, a.sf, a.lm)
	g.pushColorFromIR()
}

// opGPL: general-purpose linear interpolation, adding the existing MAC
// accumulators (scaled) to the IR0-scaled product.
func (g *GTE) opGPL(a cmdArgs) {
	mac1 := int64(g.IR0)*int64(g.IR1) + g.MAC1<<uint(shiftAmount(a.sf))
	mac2 := int64(g.IR0)*int64(g.IR2) + g.MAC2<<uint(shiftAmount(a.sf))
	mac3 := int64(g.IR0)*int64(g.IR3) + g.MAC3<<uint(shiftAmount(a.sf))
	g.setMACIR123(mac1, mac2, mac3, a.sf, a.lm)
	g.pushColorFromIR()
}

func shiftAmount(sf bool) int {
	if sf {
		return 12
	}
	return 0
}

// opSQR squares each IR component in place.
func (g *GTE) opSQR(a cmdArgs) {
	mac1 := int64(g.IR1) * int64(g.IR1)
	mac2 := int64(g.IR2) * int64(g.IR2)
	mac3 := int64(g.IR3) * int64(g.IR3)
	g.setMACIR123(mac1, mac2, mac3, a.sf, a.lm)
}

// opAVSZ3 computes the weighted average of the three most recent SZ FIFO
// entries using ZSF3, for depth-sorting ordering tables.
func (g *GTE) opAVSZ3(a cmdArgs) {
	sum := int64(g.ZSF3) * (int64(g.SZ[1]) + int64(g.SZ[2]) + int64(g.SZ[3]))
	g.MAC0 = int32(g.saturate(sum, -(1 << 31), (1<<31)-1, flagMAC0Neg))
	g.OTZ = g.saturateSZ(sum >> 12)
}

// opAVSZ4 is the four-entry counterpart, using ZSF4 and all of the SZ FIFO.
func (g *GTE) opAVSZ4(a cmdArgs) {
	sum := int64(g.ZSF4) * (int64(g.SZ[0]) + int64(g.SZ[1]) + int64(g.SZ[2]) + int64(g.SZ[3]))
	g.MAC0 = int32(g.saturate(sum, -(1 << 31), (1<<31)-1, flagMAC0Neg))
	g.OTZ = g.saturateSZ(sum >> 12)
}
