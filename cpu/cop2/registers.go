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

// ReadData implements MFC2: reading one of the 32 data registers by number.
func (g *GTE) ReadData(n uint32) uint32 {
	switch n {
	case 0:
		return uint32(uint16(g.V[0].X)) | uint32(uint16(g.V[0].Y))<<16
	case 1:
		return uint32(g.V[0].Z)
	case 2:
		return uint32(uint16(g.V[1].X)) | uint32(uint16(g.V[1].Y))<<16
	case 3:
		return uint32(g.V[1].Z)
	case 4:
		return uint32(uint16(g.V[2].X)) | uint32(uint16(g.V[2].Y))<<16
	case 5:
		return uint32(g.V[2].Z)
	case 6:
		return g.RGBC.Pack()
	case 7:
		return uint32(g.OTZ)
	case 8:
		return uint32(g.IR0)
	case 9:
		return uint32(g.IR1)
	case 10:
		return uint32(g.IR2)
	case 11:
		return uint32(g.IR3)
	case 12:
		return g.SXY[0].Pack()
	case 13:
		return g.SXY[1].Pack()
	case 14, 15:
		return g.SXY[2].Pack() // SXYP mirrors SXY2 on read
	case 16:
		return uint32(g.SZ[0])
	case 17:
		return uint32(g.SZ[1])
	case 18:
		return uint32(g.SZ[2])
	case 19:
		return uint32(g.SZ[3])
	case 20:
		return g.RGBFIFO[0].Pack()
	case 21:
		return g.RGBFIFO[1].Pack()
	case 22:
		return g.RGBFIFO[2].Pack()
	case 23:
		return g.RES1
	case 24:
		return uint32(g.MAC0)
	case 25:
		return uint32(g.MAC1)
	case 26:
		return uint32(g.MAC2)
	case 27:
		return uint32(g.MAC3)
	case 28, 29:
		return g.irgb()
	case 30:
		return uint32(g.LZCS)
	case 31:
		return g.LeadingZeroCount()
	default:
		return 0
	}
}

// irgb packs IR1-3 (each clamped to 0-0x1f after a >>7 scale) into the IRGB/
// ORGB 5-5-5 read-only view.
func (g *GTE) irgb() uint32 {
	clamp := func(v int32) uint32 {
		c := v >> 7
		if c < 0 {
			c = 0
		}
		if c > 0x1f {
			c = 0x1f
		}
		return uint32(c)
	}
	return clamp(g.IR1) | clamp(g.IR2)<<5 | clamp(g.IR3)<<10
}

// WriteData implements MTC2.
func (g *GTE) WriteData(n uint32, v uint32) {
	switch n {
	case 0:
		g.V[0].X, g.V[0].Y = int16(v), int16(v>>16)
	case 1:
		g.V[0].Z = int16(v)
	case 2:
		g.V[1].X, g.V[1].Y = int16(v), int16(v>>16)
	case 3:
		g.V[1].Z = int16(v)
	case 4:
		g.V[2].X, g.V[2].Y = int16(v), int16(v>>16)
	case 5:
		g.V[2].Z = int16(v)
	case 6:
		g.RGBC = UnpackColor(v)
	case 7:
		g.OTZ = uint16(v)
	case 8:
		g.IR0 = int32(v)
	case 9:
		g.IR1 = int32(v)
	case 10:
		g.IR2 = int32(v)
	case 11:
		g.IR3 = int32(v)
	case 12:
		g.SXY[0] = ScreenXY{X: int16(v), Y: int16(v >> 16)}
	case 13:
		g.SXY[1] = ScreenXY{X: int16(v), Y: int16(v >> 16)}
	case 14:
		g.SXY[2] = ScreenXY{X: int16(v), Y: int16(v >> 16)}
	case 15:
		g.pushSXY(int16(v), int16(v>>16))
	case 16:
		g.SZ[0] = uint16(v)
	case 17:
		g.SZ[1] = uint16(v)
	case 18:
		g.SZ[2] = uint16(v)
	case 19:
		g.SZ[3] = uint16(v)
	case 20:
		g.RGBFIFO[0] = UnpackColor(v)
	case 21:
		g.RGBFIFO[1] = UnpackColor(v)
	case 22:
		g.RGBFIFO[2] = UnpackColor(v)
	case 23:
		g.RES1 = v
	case 24:
		g.MAC0 = int32(v)
	case 25:
		g.MAC1 = int64(int32(v))
	case 26:
		g.MAC2 = int64(int32(v))
	case 27:
		g.MAC3 = int64(int32(v))
	case 30:
		g.LZCS = int32(v)
	// 28/29 (IRGB/ORGB) and 31 (LZCR) are read-only; writes are ignored.
	default:
	}
}

// ReadControl implements CFC2: reading one of the 32 control registers.
func (g *GTE) ReadControl(n uint32) uint32 {
	switch n {
	case 0:
		return packMatrixRow(g.RT, 0)
	case 1:
		return packMatrixRow(g.RT, 1)
	case 2:
		return packMatrixRow2(g.RT)
	case 3:
		return uint32(g.RT[2][1]) | uint32(uint16(g.RT[2][2]))<<16
	case 4:
		return uint32(g.TR.X)
	case 5:
		return uint32(g.TR.Y)
	case 6:
		return uint32(g.TR.Z)
	case 8:
		return packMatrixRow(g.L, 0)
	case 9:
		return packMatrixRow(g.L, 1)
	case 10:
		return packMatrixRow2(g.L)
	case 11:
		return uint32(g.L[2][1]) | uint32(uint16(g.L[2][2]))<<16
	case 12:
		return uint32(g.BK.X)
	case 13:
		return uint32(g.BK.Y)
	case 14:
		return uint32(g.BK.Z)
	case 16:
		return packMatrixRow(g.LCM, 0)
	case 17:
		return packMatrixRow(g.LCM, 1)
	case 18:
		return packMatrixRow2(g.LCM)
	case 19:
		return uint32(g.LCM[2][1]) | uint32(uint16(g.LCM[2][2]))<<16
	case 20:
		return uint32(g.FC.X)
	case 21:
		return uint32(g.FC.Y)
	case 22:
		return uint32(g.FC.Z)
	case 24:
		return uint32(g.OFX)
	case 25:
		return uint32(g.OFY)
	case 26:
		return uint32(int32(g.H))
	case 27:
		return uint32(g.DQA)
	case 28:
		return uint32(g.DQB)
	case 29:
		return uint32(g.ZSF3)
	case 30:
		return uint32(g.ZSF4)
	case 31:
		return g.ReadFlags()
	default:
		return 0
	}
}

func packMatrixRow(m Matrix3, row int) uint32 {
	return uint32(uint16(m[row][0])) | uint32(uint16(m[row][1]))<<16
}

func packMatrixRow2(m Matrix3) uint32 {
	return uint32(uint16(m[1][2])) | uint32(uint16(m[2][0]))<<16
}

// WriteControl implements CTC2.
func (g *GTE) WriteControl(n uint32, v uint32) {
	switch n {
	case 0:
		g.RT[0][0], g.RT[0][1] = int16(v), int16(v>>16)
	case 1:
		g.RT[0][2], g.RT[1][0] = int16(v), int16(v>>16)
	case 2:
		g.RT[1][1], g.RT[1][2] = int16(v), int16(v>>16)
	case 3:
		g.RT[2][0], g.RT[2][1] = int16(v), int16(v>>16)
	case 4:
		g.TR.X = int32(v)
	case 5:
		g.TR.Y = int32(v)
	case 6:
		g.TR.Z = int32(v)
	case 8:
		g.L[0][0], g.L[0][1] = int16(v), int16(v>>16)
	case 9:
		g.L[0][2], g.L[1][0] = int16(v), int16(v>>16)
	case 10:
		g.L[1][1], g.L[1][2] = int16(v), int16(v>>16)
	case 11:
		g.L[2][0], g.L[2][1] = int16(v), int16(v>>16)
	case 12:
		g.BK.X = int32(v)
	case 13:
		g.BK.Y = int32(v)
	case 14:
		g.BK.Z = int32(v)
	case 16:
		g.LCM[0][0], g.LCM[0][1] = int16(v), int16(v>>16)
	case 17:
		g.LCM[0][2], g.LCM[1][0] = int16(v), int16(v>>16)
	case 18:
		g.LCM[1][1], g.LCM[1][2] = int16(v), int16(v>>16)
	case 19:
		g.LCM[2][0], g.LCM[2][1] = int16(v), int16(v>>16)
	case 20:
		g.FC.X = int32(v)
	case 21:
		g.FC.Y = int32(v)
	case 22:
		g.FC.Z = int32(v)
	case 24:
		g.OFX = int32(v)
	case 25:
		g.OFY = int32(v)
	case 26:
		g.H = uint16(v)
	case 27:
		g.DQA = int16(v)
	case 28:
		g.DQB = int32(v)
	case 29:
		g.ZSF3 = int16(v)
	case 30:
		g.ZSF4 = int16(v)
	case 31:
		g.Flags = v & 0x7fffffff
	default:
	}
}
