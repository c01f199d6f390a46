package vm

import (
	"bytes"
	"fmt"
	"io"

	"github.com/pierrec/lz4/v4"

	ravmerr "github.com/tensorlang/ravm/errors"
)

// maxDecompressedCodeSize bounds decompressCodeSection's output so a small
// malicious compressed code section cannot expand to an unbounded size
// (a decompression bomb) before Load ever gets to inspect it.
const maxDecompressedCodeSize = 1 << 30 // 1 GiB

// compressCodeSection frame-compresses data with lz4. Used for the code
// section only when Config.AllowCompression is set; the compressed/plain
// choice is recorded in the header flags byte, not inferred from content.
func compressCodeSection(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("ravm: compress code section: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("ravm: compress code section: %w", err)
	}
	return buf.Bytes(), nil
}

// decompressCodeSection reverses compressCodeSection. The output is capped
// at maxDecompressedCodeSize: an lz4.Reader placed directly behind
// io.ReadAll would happily expand a few kilobytes of crafted input into
// gigabytes of output, so the read is bounded before that expansion can
// happen rather than after.
func decompressCodeSection(data []byte) ([]byte, error) {
	r := lz4.NewReader(bytes.NewReader(data))
	out, err := io.ReadAll(io.LimitReader(r, maxDecompressedCodeSize+1))
	if err != nil {
		return nil, fmt.Errorf("ravm: decompress code section: %w", err)
	}
	if len(out) > maxDecompressedCodeSize {
		return nil, fmt.Errorf("ravm: decompress code section: %w", ravmerr.ErrTruncatedStream)
	}
	return out, nil
}
