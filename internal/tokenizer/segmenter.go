package tokenizer

import (
	"fmt"
	"os"
	"strings"
	"unicode"

	"github.com/huichen/sego"

	"github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/errors"
)

// Segmenter splits text with a dictionary-driven segmentation model. The
// model is loaded once at startup from one or more dictionary files.
type Segmenter struct {
	seg *sego.Segmenter
}

// NewSegmenter loads the comma-separated dictionary files. sego aborts the
// process on an unreadable dictionary, so every file is opened here first
// and a missing one is reported as ErrTokenizerInit instead.
func NewSegmenter(dictionaries string) (*Segmenter, error) {
	if strings.TrimSpace(dictionaries) == "" {
		return nil, fmt.Errorf("%w: no segmenter dictionaries configured", apperrors.ErrTokenizerInit)
	}
	for _, path := range strings.Split(dictionaries, ",") {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("%w: opening dictionary %s: %v", apperrors.ErrTokenizerInit, path, err)
		}
		f.Close()
	}
	seg := &sego.Segmenter{}
	seg.LoadDictionary(dictionaries)
	return &Segmenter{seg: seg}, nil
}

func (s *Segmenter) Name() string { return config.TokenizerSegmenter }

func (s *Segmenter) Tokenize(text string) []string {
	segments := s.seg.Segment([]byte(text))
	tokens := make([]string, 0, len(segments))
	for _, segment := range segments {
		tok := segment.Token().Text()
		if strings.TrimFunc(tok, unicode.IsSpace) == "" {
			continue
		}
		tokens = append(tokens, strings.ToLower(tok))
	}
	return tokens
}
