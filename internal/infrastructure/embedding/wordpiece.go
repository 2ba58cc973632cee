package embedding

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	clsToken = "[CLS]"
	sepToken = "[SEP]"
	padToken = "[PAD]"
	unkToken = "[UNK]"

	maxWordChars = 100
)

// Tokens — входы BERT-модели фиксированной длины.
type Tokens struct {
	InputIDs      []int64
	AttentionMask []int64
	TokenTypeIDs  []int64
}

// WordPiece — токенизатор BERT uncased: нижний регистр, удаление диакритики,
// отделение пунктуации и жадный поиск самого длинного подслова по словарю.
type WordPiece struct {
	vocab map[string]int64
	cls   int64
	sep   int64
	pad   int64
	unk   int64
}

// LoadWordPiece читает vocab.txt: один токен на строку, id равен номеру строки.
func LoadWordPiece(path string) (*WordPiece, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vocab: %w", err)
	}
	defer f.Close()

	return NewWordPiece(f)
}

func NewWordPiece(r io.Reader) (*WordPiece, error) {
	vocab := make(map[string]int64)

	sc := bufio.NewScanner(r)
	var id int64
	for sc.Scan() {
		token := strings.TrimRight(sc.Text(), "\r")
		if _, ok := vocab[token]; !ok {
			vocab[token] = id
		}
		id++
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read vocab: %w", err)
	}

	w := &WordPiece{vocab: vocab}
	for token, dst := range map[string]*int64{clsToken: &w.cls, sepToken: &w.sep, padToken: &w.pad, unkToken: &w.unk} {
		v, ok := vocab[token]
		if !ok {
			return nil, fmt.Errorf("vocab has no %s token", token)
		}
		*dst = v
	}

	return w, nil
}

// Tokenize возвращает [CLS] токены [SEP], обрезанные и дополненные [PAD] до maxTokens.
func (w *WordPiece) Tokenize(text string, maxTokens int) Tokens {
	out := Tokens{
		InputIDs:      make([]int64, maxTokens),
		AttentionMask: make([]int64, maxTokens),
		TokenTypeIDs:  make([]int64, maxTokens),
	}
	if maxTokens < 2 {
		return out
	}

	ids := make([]int64, 0, maxTokens)
	ids = append(ids, w.cls)
	for _, word := range basicTokens(text) {
		for _, id := range w.wordPieces(word) {
			if len(ids) == maxTokens-1 {
				break
			}
			ids = append(ids, id)
		}
	}
	ids = append(ids, w.sep)

	for i := range out.InputIDs {
		if i < len(ids) {
			out.InputIDs[i] = ids[i]
			out.AttentionMask[i] = 1
		} else {
			out.InputIDs[i] = w.pad
		}
	}

	return out
}

func (w *WordPiece) wordPieces(word string) []int64 {
	chars := []rune(word)
	if len(chars) > maxWordChars {
		return []int64{w.unk}
	}

	var pieces []int64
	for start := 0; start < len(chars); {
		end := len(chars)
		found := int64(-1)

		for end > start {
			sub := string(chars[start:end])
			if start > 0 {
				sub = "##" + sub
			}
			if id, ok := w.vocab[sub]; ok {
				found = id
				break
			}
			end--
		}

		if found < 0 {
			return []int64{w.unk}
		}
		pieces = append(pieces, found)
		start = end
	}

	return pieces
}

var stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// basicTokens режет текст по пробелам и пунктуации. Пунктуация становится отдельным словом.
func basicTokens(text string) []string {
	cleaned, _, err := transform.String(stripAccents, strings.ToLower(text))
	if err != nil {
		cleaned = strings.ToLower(text)
	}

	var (
		words []string
		cur   strings.Builder
	)
	flush := func() {
		if cur.Len() > 0 {
			words = append(words, cur.String())
			cur.Reset()
		}
	}

	for _, r := range cleaned {
		switch {
		case r == 0 || r == unicode.ReplacementChar || unicode.IsControl(r) && !unicode.IsSpace(r):
			continue
		case unicode.IsSpace(r):
			flush()
		case isPunct(r) || isCJK(r):
			flush()
			words = append(words, string(r))
		default:
			cur.WriteRune(r)
		}
	}
	flush()

	return words
}

func isPunct(r rune) bool {
	if (r >= 33 && r <= 47) || (r >= 58 && r <= 64) || (r >= 91 && r <= 96) || (r >= 123 && r <= 126) {
		return true
	}
	return unicode.IsPunct(r)
}

func isCJK(r rune) bool {
	return unicode.Is(unicode.Han, r)
}
