/*
Package lz4window decodes the LZ4 block variant stored in CCI slices.

Stream: a sequence of token-led records. The token's high nibble is the
literal run length, the low nibble is the match length minus 4. A nibble of 15
is extended by following bytes, each added to the length, until a byte other
than 255 is read. Literals follow the token (and its extension bytes). A
record whose literals end the stream has no match; otherwise a little-endian
16-bit back-reference delta follows, then the match length extension.

Window: decoded bytes are staged in a 2560-byte circular buffer which also
serves as the back-reference source. Whenever the write cursor reaches the end
of the buffer the staged bytes are flushed to the sink and the cursor wraps to
0; any remainder is flushed when the stream ends.

The window and its cursor belong to the Decompressor and survive between
calls. Back-references may therefore reach into bytes produced by earlier
calls, and blocks must be decoded in the order they were encoded. Use one
Decompressor per logical stream.

# Examples

Decode one block into a fixed sector buffer:

	d := lz4window.New()
	sector := make([]byte, 2048)
	n, err := d.Decode(padding, raw, sector)
	if err != nil {
		return err
	}
	_ = n

Stream a block from a byte source into any writer:

	n, err := d.Stream(bufio.NewReader(r), compressedLen, w)
*/
package lz4window
