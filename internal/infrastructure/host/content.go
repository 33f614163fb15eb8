package host

import (
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/saintfish/chardet"
	"golang.org/x/net/html/charset"
)

// MaxResourceSize bounds the resources ReadFileContent will load
const MaxResourceSize = 16 << 20

func isText(mtype *mimetype.MIME) bool {
	s := mtype.String()
	return strings.HasPrefix(s, "text/") ||
		mtype.Is("application/json") ||
		mtype.Is("application/xml") ||
		mtype.Is("application/javascript")
}

// detectCharset returns the best guess for data, defaulting to utf-8
func detectCharset(data []byte) string {
	detector := chardet.NewTextDetector()
	result, err := detector.DetectBest(data)
	if err != nil || result == nil {
		return "utf-8"
	}
	return strings.ToLower(result.Charset)
}

// readText loads path and converts text content to UTF-8. Binary content
// is returned unchanged.
func readText(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory", path)
	}
	if info.Size() > MaxResourceSize {
		return "", fmt.Errorf("%s exceeds maximum size of %d bytes", path, MaxResourceSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	if utf8.Valid(data) || !isText(mimetype.Detect(data)) {
		return string(data), nil
	}

	enc, name := charset.Lookup(detectCharset(data))
	if enc == nil {
		return string(data), nil
	}

	decoded, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("transcode %s from %s: %w", path, name, err)
	}
	return string(decoded), nil
}
