package utils

import (
	"bytes"
	"errors"
	"io"
	"os"
	"unicode/utf8"
)

// sniffLength defines the maximum number of bytes read when detecting binary content.
const sniffLength = 8000

// IsBinary reports whether the provided byte slice appears to contain binary data.
func IsBinary(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	if bytes.IndexByte(data, 0) >= 0 {
		return true
	}
	if utf8.Valid(data) {
		return false
	}
	// A multi-byte rune cut at the sniff boundary is still text.
	for trim := 1; trim < utf8.UTFMax && trim < len(data); trim++ {
		if utf8.Valid(data[:len(data)-trim]) {
			return false
		}
	}
	return true
}

// IsFileBinary reads up to sniffLength bytes from the file at path and determines
// if the content appears to be binary.
func IsFileBinary(path string) (bool, error) {
	fileHandle, openError := os.Open(path)
	if openError != nil {
		return false, openError
	}
	defer fileHandle.Close()

	buffer := make([]byte, sniffLength)
	bytesRead, readError := io.ReadFull(fileHandle, buffer)
	if readError != nil && !errors.Is(readError, io.EOF) && !errors.Is(readError, io.ErrUnexpectedEOF) {
		return false, readError
	}
	return IsBinary(buffer[:bytesRead]), nil
}
