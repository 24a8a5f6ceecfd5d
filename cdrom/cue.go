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
	"bufio"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// CueFileType names the audio/data encoding of one FILE line in a cue sheet.
type CueFileType int

const (
	CueBinary CueFileType = iota
	CueWave
	CueMP3
	CueUnknown
)

// CueTrackType names one TRACK line's format.
type CueTrackType int

const (
	TrackMode1_2352 CueTrackType = iota
	TrackMode2_2352
	TrackAudio
	TrackUnknown
)

// CueIndex is one INDEX line: an index number and its MSF position within
// the enclosing FILE.
type CueIndex struct {
	Number uint8
	Time   Msf
}

// Msf is a disc position expressed as minute:second:frame, as written in a
// cue sheet (as opposed to DiscTime, which additionally validates ranges).
type Msf struct {
	Minute, Second, Frame uint8
}

// CueTrack is one TRACK block: its number, format, and index list.
type CueTrack struct {
	Number    uint8
	TrackType CueTrackType
	Indices   []CueIndex
}

// CueFile is one FILE block: the referenced media file and the tracks it
// contains.
type CueFile struct {
	Path     string
	FileType CueFileType
	Tracks   []CueTrack
}

// CueSheet is a parsed .cue file: an ordered list of FILE blocks.
type CueSheet struct {
	Files []CueFile
}

// ParseCue reads a cue sheet from path, resolving FILE paths relative to
// the cue sheet's own directory.
func ParseCue(path string) (CueSheet, error) {
	f, err := os.Open(path)
	if err != nil {
		return CueSheet{}, err
	}
	defer f.Close()

	baseDir := filepath.Dir(path)
	var sheet CueSheet
	var currentFile *CueFile
	var currentTrack *CueTrack

	flushTrack := func() {
		if currentTrack != nil && currentFile != nil {
			currentFile.Tracks = append(currentFile.Tracks, *currentTrack)
			currentTrack = nil
		}
	}
	flushFile := func() {
		flushTrack()
		if currentFile != nil {
			sheet.Files = append(sheet.Files, *currentFile)
			currentFile = nil
		}
	}

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		parts := splitCueLine(line)
		if len(parts) == 0 {
			continue
		}

		switch parts[0] {
		case "FILE":
			flushFile()
			currentFile = &CueFile{
				Path:     filepath.Join(baseDir, parts[1]),
				FileType: parseCueFileType(parts[2]),
			}
		case "TRACK":
			flushTrack()
			n, _ := strconv.Atoi(parts[1])
			currentTrack = &CueTrack{Number: uint8(n), TrackType: parseCueTrackType(parts[2])}
		case "INDEX":
			if currentTrack != nil {
				n, _ := strconv.Atoi(parts[1])
				currentTrack.Indices = append(currentTrack.Indices, CueIndex{
					Number: uint8(n),
					Time:   parseMsf(parts[2]),
				})
			}
		}
	}
	flushFile()

	if err := scanner.Err(); err != nil {
		return CueSheet{}, err
	}
	return sheet, nil
}

// splitCueLine tokenizes on whitespace outside of double-quoted spans, so
// `FILE "my game.bin" BINARY` yields three tokens rather than five.
func splitCueLine(line string) []string {
	var result []string
	var current strings.Builder
	inQuotes := false
	for _, c := range line {
		switch {
		case c == '"':
			inQuotes = !inQuotes
		case c == ' ' && !inQuotes:
			if current.Len() > 0 {
				result = append(result, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(c)
		}
	}
	if current.Len() > 0 {
		result = append(result, current.String())
	}
	return result
}

func parseCueFileType(s string) CueFileType {
	switch s {
	case "BINARY":
		return CueBinary
	case "WAVE":
		return CueWave
	case "MP3":
		return CueMP3
	default:
		return CueUnknown
	}
}

func parseCueTrackType(s string) CueTrackType {
	switch s {
	case "MODE1/2352":
		return TrackMode1_2352
	case "MODE2/2352":
		return TrackMode2_2352
	case "AUDIO":
		return TrackAudio
	default:
		return TrackUnknown
	}
}

func parseMsf(s string) Msf {
	parts := strings.Split(s, ":")
	get := func(i int) uint8 {
		if i >= len(parts) {
			return 0
		}
		n, _ := strconv.Atoi(parts[i])
		return uint8(n)
	}
	return Msf{Minute: get(0), Second: get(1), Frame: get(2)}
}
