package parser

import (
	"encoding/json"
	"fmt"
	"io"

	"NewsDigest/internal/domain"
)

// DecodeBatch parses a serialized article batch. A JSON null decodes to an
// empty batch.
func DecodeBatch(r io.Reader) ([]domain.RawArticle, error) {
	var batch []domain.RawArticle
	if err := json.NewDecoder(r).Decode(&batch); err != nil {
		return nil, fmt.Errorf("decode article batch: %w", err)
	}
	return batch, nil
}
