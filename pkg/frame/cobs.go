package frame

// Consistent Overhead Byte Stuffing.
//
// The encoder replaces every zero byte with a pointer to the next one, so the
// encoded block contains no zeros and a single 0x00 can mark the end of a frame.

// maxBlock is the largest run a single code byte can describe.
const maxBlock = 0xFF

// cobsMaxLen returns the worst-case encoded length of n payload bytes,
// excluding the delimiter.
func cobsMaxLen(n int) int {
	return n + n/(maxBlock-1) + 1
}

// cobsEncode stuffs src into dst and returns the number of bytes written.
// dst must hold at least cobsMaxLen(len(src)) bytes.
func cobsEncode(dst, src []byte) int {
	code := byte(1)
	codeIdx := 0
	n := 1

	for _, b := range src {
		if b == 0 {
			dst[codeIdx] = code
			codeIdx = n
			n++
			code = 1
			continue
		}

		dst[n] = b
		n++
		code++
		if code == maxBlock {
			dst[codeIdx] = code
			codeIdx = n
			n++
			code = 1
		}
	}
	dst[codeIdx] = code

	return n
}

// cobsDecode reverses cobsEncode. src must not include the delimiter.
// It returns the number of bytes written to dst, or ErrMalformedFrame when
// src is not a valid stuffed block or does not fit into dst.
func cobsDecode(dst, src []byte) (int, error) {
	n := 0
	i := 0

	for i < len(src) {
		code := int(src[i])
		if code == 0 {
			return 0, ErrMalformedFrame
		}
		i++

		end := i + code - 1
		if end > len(src) {
			return 0, ErrMalformedFrame
		}

		for ; i < end; i++ {
			if src[i] == 0 {
				return 0, ErrMalformedFrame
			}
			if n >= len(dst) {
				return 0, ErrMalformedFrame
			}
			dst[n] = src[i]
			n++
		}

		// A short block implies a zero, except after the last block.
		if code < maxBlock && i < len(src) {
			if n >= len(dst) {
				return 0, ErrMalformedFrame
			}
			dst[n] = 0
			n++
		}
	}

	return n, nil
}
