package mc

import (
	"io"
)

// maxFrameSize bounds the length a frame prefix may announce.
const maxFrameSize = 8192

// ReadFrame reads exactly one request or response frame of format f from r.
// It reads the fixed prefix first and then the number of bytes the prefix
// announces, so bytes of a following frame are never consumed.
func ReadFrame(r io.Reader, f Format) ([]byte, error) {
	prefix := make([]byte, PrefixSize(f))
	if _, err := io.ReadFull(r, prefix); err != nil {
		return nil, err
	}

	total, err := FrameLength(f, prefix)
	if err != nil {
		return nil, err
	}
	if total > maxFrameSize {
		return nil, frameErrorf(ErrFrameLength, "announced %d bytes, limit %d", total, maxFrameSize)
	}

	frame := make([]byte, total)
	copy(frame, prefix)
	if _, err := io.ReadFull(r, frame[len(prefix):]); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}

		return nil, err
	}

	return frame, nil
}
