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

package cdrom

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gopsx/psx/logger"
)

// SectorSize is the Red Book raw sector size in bytes.
const SectorSize = 2352

// DiscTime is a validated minute:second:frame disc position (0-79m,
// 0-59s, 0-74f), convertible to and from a linear frame count (LBA).
type DiscTime struct {
	Minutes, Seconds, Frames uint8
}

// FrameTime is the duration of a single sector: used to advance the read
// head by exactly one sector between ReadNextSector events.
var FrameTime = DiscTime{Frames: 1}

// NewDiscTime builds a DiscTime without range validation, for internal
// arithmetic (Add/Sub) where the operands are already known-good.
func NewDiscTime(m, s, f uint8) DiscTime { return DiscTime{m, s, f} }

// NewDiscTimeChecked validates the Red Book ranges before constructing a
// DiscTime, used when decoding a SetLoc command's BCD parameters.
func NewDiscTimeChecked(m, s, f uint8) (DiscTime, bool) {
	if m < 80 && s < 60 && f < 75 {
		return DiscTime{m, s, f}, true
	}
	return DiscTime{}, false
}

// ToLBA converts to a zero-based linear frame count.
func (t DiscTime) ToLBA() uint32 {
	return (uint32(t.Minutes)*60+uint32(t.Seconds))*75 + uint32(t.Frames)
}

// DiscTimeFromLBA is the inverse of ToLBA.
func DiscTimeFromLBA(lba uint32) DiscTime {
	frames := uint8(lba % 75)
	totalSeconds := lba / 75
	seconds := uint8(totalSeconds % 60)
	minutes := uint8(totalSeconds / 60)
	return DiscTime{minutes, seconds, frames}
}

// discTimeFromFileLength derives a track's duration from its backing
// file's byte length, assuming one track per FILE (the only layout the
// disc loader supports).
func discTimeFromFileLength(length uint32) DiscTime {
	return DiscTimeFromLBA(length / SectorSize)
}

// Add sums two disc times via their LBA representation.
func (t DiscTime) Add(o DiscTime) DiscTime { return DiscTimeFromLBA(t.ToLBA() + o.ToLBA()) }

// Sub subtracts, saturating at zero.
func (t DiscTime) Sub(o DiscTime) DiscTime {
	a, b := t.ToLBA(), o.ToLBA()
	if b > a {
		return DiscTimeFromLBA(0)
	}
	return DiscTimeFromLBA(a - b)
}

// Less orders two disc times by LBA.
func (t DiscTime) Less(o DiscTime) bool { return t.ToLBA() < o.ToLBA() }

func (t DiscTime) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Minutes, t.Seconds, t.Frames)
}

// TrackSectorDataSize selects how much of a sector ReadN/ReadS hands back,
// set by SetMode bit 5.
type TrackSectorDataSize int

const (
	DataOnly TrackSectorDataSize = iota
	WholeSectorExceptSyncBytes
)

// TrackType is a track's payload format: plain audio, or data with a mode
// (1 or 2) and sector-user-data length.
type TrackType struct {
	Audio bool
	Mode  uint8
	Len   uint16
}

// DataSector is one raw 2352-byte sector read from a track's backing file.
type DataSector struct {
	LBA    uint32
	Sector [SectorSize]byte
}

// UserData returns the portion of the sector ReadN/ReadS delivers,
// according to the Mode 2 sector layout (12 sync + 3 MSF + 1 mode + 8
// subheader + payload).
func (d *DataSector) UserData(size TrackSectorDataSize) []byte {
	switch size {
	case WholeSectorExceptSyncBytes:
		return d.Sector[12:]
	default:
		return d.Sector[24 : 24+2048]
	}
}

// Track is one playable region of a disc: its backing file, format, and
// MSF extent (inclusive of a 2-second pre-gap the drive always seeks
// through for data tracks).
type Track struct {
	fileIndex int
	number    uint8
	trackType TrackType
	startTime DiscTime
	endTime   DiscTime
	preGap    DiscTime
}

// Number returns the track's 1-based track number.
func (t *Track) Number() uint8 { return t.number }

// Type returns the track's format.
func (t *Track) Type() TrackType { return t.trackType }

// StartTime returns the track's first playable MSF.
func (t *Track) StartTime() DiscTime { return t.startTime }

// EndTime returns the track's one-past-last MSF.
func (t *Track) EndTime() DiscTime { return t.endTime }

func (t *Track) contains(msf DiscTime) bool {
	return !msf.Less(t.startTime) && msf.Less(t.endTime)
}

func newTrack(fileIndex int, number uint8, trackType TrackType, start, end DiscTime) Track {
	preGap := DiscTime{}
	if !trackType.Audio {
		preGap = DiscTime{Seconds: 2}
	}
	return Track{
		fileIndex: fileIndex,
		number:    number,
		trackType: trackType,
		startTime: start.Add(preGap),
		endTime:   end.Add(preGap),
		preGap:    preGap,
	}
}

// Disc is a loaded CUE sheet plus its opened backing media files: the
// read/write surface the CD-ROM controller's commands operate against.
type Disc struct {
	cueFileName string
	tracks      []Track
	files       []string
	region      Region
	hasRegion   bool
	headPos     DiscTime
}

// LoadDisc parses a cue sheet and opens each referenced media file,
// deriving track boundaries from file lengths (one track per file, the
// layout produced by standard bin/cue rippers).
func LoadDisc(cueFileName string) (*Disc, error) {
	sheet, err := ParseCue(cueFileName)
	if err != nil {
		return nil, fmt.Errorf("parsing cue sheet %q: %w", cueFileName, err)
	}

	d := &Disc{cueFileName: cueFileName}

	lastTime := DiscTime{}
	for _, cf := range sheet.Files {
		if _, err := os.Stat(cf.Path); err != nil {
			return nil, fmt.Errorf("media file %q referenced by %q does not exist", cf.Path, cueFileName)
		}
		info, err := os.Stat(cf.Path)
		if err != nil {
			return nil, fmt.Errorf("statting %q: %w", cf.Path, err)
		}
		fileIndex := len(d.files)
		d.files = append(d.files, cf.Path)
		fileTime := discTimeFromFileLength(uint32(info.Size()))

		for _, ct := range cf.Tracks {
			var tt TrackType
			switch ct.TrackType {
			case TrackAudio:
				tt = TrackType{Audio: true}
			case TrackMode1_2352:
				tt = TrackType{Mode: 1, Len: SectorSize}
			case TrackMode2_2352:
				tt = TrackType{Mode: 2, Len: SectorSize}
			default:
				return nil, fmt.Errorf("unsupported track type in %q", cueFileName)
			}

			start := DiscTime{}
			for _, idx := range ct.Indices {
				if idx.Number == 1 {
					start = DiscTime{idx.Time.Minute, idx.Time.Second, idx.Time.Frame}
				}
			}
			end := start.Add(fileTime)

			track := newTrack(fileIndex, ct.Number, tt, lastTime.Add(start), lastTime.Add(end))
			lastTime = lastTime.Add(track.endTime.Sub(track.startTime)).Add(track.preGap).Add(track.preGap)
			d.tracks = append(d.tracks, track)
		}
	}

	if len(d.tracks) > 0 && !d.tracks[0].trackType.Audio {
		if region, ok := regionFromSystemCNF(d.files[d.tracks[0].fileIndex]); ok {
			d.region, d.hasRegion = region, true
		}
	}

	for _, t := range d.tracks {
		logger.Logf("cdrom", "track %d [%+v] %s - %s", t.number, t.trackType, t.startTime, t.endTime)
	}

	return d, nil
}

// CueFileName returns the path the disc was loaded from.
func (d *Disc) CueFileName() string { return d.cueFileName }

// Region returns the detected SCEx region, if SYSTEM.CNF was readable.
func (d *Disc) Region() (Region, bool) { return d.region, d.hasRegion }

// IsAudioCD reports whether track 1 is an audio track rather than data.
func (d *Disc) IsAudioCD() bool {
	return len(d.tracks) > 0 && d.tracks[0].trackType.Audio
}

// Tracks returns the disc's track list in cue-sheet order.
func (d *Disc) Tracks() []Track { return d.tracks }

// TrackByNumber looks a track up by its 1-based number; 0 means the last
// track, matching GetTN's "last track" convention.
func (d *Disc) TrackByNumber(number uint8) (*Track, bool) {
	if number == 0 {
		if len(d.tracks) == 0 {
			return nil, false
		}
		return &d.tracks[len(d.tracks)-1], true
	}
	for i := range d.tracks {
		if d.tracks[i].number == number {
			return &d.tracks[i], true
		}
	}
	return nil, false
}

func (d *Disc) findTrack(msf DiscTime) (*Track, bool) {
	for i := range d.tracks {
		if d.tracks[i].contains(msf) {
			return &d.tracks[i], true
		}
	}
	return nil, false
}

// ReadSector reads the sector currently under the read head, or reports
// failure if the head isn't positioned within any track.
func (d *Disc) ReadSector() (DataSector, bool) {
	msf := d.headPos
	track, ok := d.findTrack(msf)
	if !ok {
		return DataSector{}, false
	}

	f, err := os.Open(d.files[track.fileIndex])
	if err != nil {
		logger.Logf("cdrom", "reopening %q failed: %v", d.files[track.fileIndex], err)
		return DataSector{}, false
	}
	defer f.Close()

	offset := int64(msf.ToLBA()-track.startTime.ToLBA()) * SectorSize
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return DataSector{}, false
	}
	sector := DataSector{LBA: msf.ToLBA()}
	if _, err := io.ReadFull(f, sector.Sector[:]); err != nil {
		logger.Logf("cdrom", "reading sector %s from track %d failed: %v", msf, track.number, err)
		return DataSector{}, false
	}
	return sector, true
}

// SeekSector moves the read head directly to msf.
func (d *Disc) SeekSector(msf DiscTime) { d.headPos = msf }

// HeadPosition returns the read head's current MSF.
func (d *Disc) HeadPosition() DiscTime { return d.headPos }

// AdvanceSector moves the read head forward by one frame, the step
// ReadNextSector takes between consecutive ReadN deliveries.
func (d *Disc) AdvanceSector() { d.headPos = d.headPos.Add(FrameTime) }

// regionFromSystemCNF reads the primary volume descriptor and root
// directory of an ISO9660 data track to locate SYSTEM.CNF, then extracts
// the boot executable's SxPx/SxUx/SxEx region letter.
func regionFromSystemCNF(path string) (Region, bool) {
	cnf, err := readSystemCNF(path)
	if err != nil {
		return 0, false
	}
	re := regexp.MustCompile(`(?i)\s*BOOT\s*=\s*cdrom:\\(.*);.*`)
	m := re.FindStringSubmatch(cnf)
	if m == nil {
		return 0, false
	}
	name := strings.ToUpper(m[1])
	if len(name) < 4 || name[0] != 'S' {
		return 0, false
	}
	switch name[2] {
	case 'P':
		return RegionJapan, true
	case 'U':
		return RegionUSA, true
	case 'E':
		return RegionEurope, true
	default:
		return 0, false
	}
}

const isoUserDataSize = 2048

func readISOSector(f *os.File, lba uint32) ([isoUserDataSize]byte, error) {
	var buf [isoUserDataSize]byte
	offset := int64(lba)*SectorSize + 24
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return buf, err
	}
	_, err := io.ReadFull(f, buf[:])
	return buf, err
}

// readSystemCNF walks sector 16's primary volume descriptor to the root
// directory, then linearly scans directory records for SYSTEM.CNF;1.
func readSystemCNF(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	pvd, err := readISOSector(f, 16)
	if err != nil {
		return "", err
	}

	rootDirLBA := le32(pvd[158:162])
	rootDirSize := le32(pvd[166:170])

	dirData, err := readISORun(f, rootDirLBA, rootDirSize)
	if err != nil {
		return "", err
	}

	offset := 0
	for offset < len(dirData) {
		length := int(dirData[offset])
		if length == 0 {
			offset++
			continue
		}
		lba := le32(dirData[offset+2 : offset+6])
		size := le32(dirData[offset+10 : offset+14])
		nameLen := int(dirData[offset+32])
		name := dirData[offset+33 : offset+33+nameLen]

		if string(name) == "SYSTEM.CNF;1" {
			data, err := readISORun(f, lba, size)
			if err != nil {
				return "", err
			}
			return string(data), nil
		}
		offset += length
	}
	return "", fmt.Errorf("SYSTEM.CNF not found on %q", filepath.Base(path))
}

func readISORun(f *os.File, lba, size uint32) ([]byte, error) {
	numSectors := (int(size) + isoUserDataSize - 1) / isoUserDataSize
	out := make([]byte, numSectors*isoUserDataSize)
	for i := 0; i < numSectors; i++ {
		buf, err := readISOSector(f, lba+uint32(i))
		if err != nil {
			return nil, err
		}
		copy(out[i*isoUserDataSize:], buf[:])
	}
	if int(size) < len(out) {
		out = out[:size]
	}
	return out, nil
}

func le32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
