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
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
)

// DecodeAudioTrack loads an entire CD-DA track referenced by a cue sheet's
// FILE line into interleaved 16-bit stereo PCM. BINARY tracks carry their
// audio as raw sectors already and never reach this path; only WAVE/MP3
// rips (common from CD-ripping tools that don't preserve the exact bin
// format) need decoding.
func DecodeAudioTrack(path string, fileType CueFileType) ([]int16, error) {
	switch fileType {
	case CueWave:
		return decodeWaveTrack(path)
	case CueMP3:
		return decodeMP3Track(path)
	default:
		return nil, fmt.Errorf("audio track %q is not a WAVE or MP3 file", path)
	}
}

func decodeWaveTrack(path string) ([]int16, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	var buf *audio.IntBuffer
	buf, err = dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decoding WAVE track %q: %w", path, err)
	}

	samples := make([]int16, len(buf.Data))
	for i, v := range buf.Data {
		samples[i] = int16(v)
	}
	return samples, nil
}

func decodeMP3Track(path string) ([]int16, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, fmt.Errorf("decoding MP3 track %q: %w", path, err)
	}

	var out []int16
	var frame [4096]byte
	for {
		n, err := dec.Read(frame[:])
		for i := 0; i+1 < n; i += 2 {
			out = append(out, int16(frame[i])|int16(frame[i+1])<<8)
		}
		if err != nil {
			break
		}
	}
	return out, nil
}
