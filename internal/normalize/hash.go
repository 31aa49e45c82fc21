package normalize

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/gyeh/nephtrends/internal/model"
)

// FileHash computes the hex-encoded SHA-256 of the file at path.
func FileHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open file for hash: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash file: %w", err)
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// DocumentHash returns the canonical JSON encoding of rec and its hex SHA-256.
// encoding/json emits struct fields in declaration order and map keys sorted,
// so equal records hash equal regardless of the source key order.
func DocumentHash(rec *model.PatientRecord) ([]byte, string, error) {
	doc, err := json.Marshal(rec)
	if err != nil {
		return nil, "", fmt.Errorf("encode patient %q: %w", rec.ID, err)
	}
	sum := sha256.Sum256(doc)
	return doc, fmt.Sprintf("%x", sum[:]), nil
}
