package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// The extractor of the real backend runs OCR over the uploaded image. The
// mock skips OCR and parses the uploaded bytes directly as receipt text:
// uploads whose bytes are mostly printable are treated as the OCR output,
// anything else (a real binary image) extracts as an unreadable receipt.
// The field heuristics below match the real parser.

const (
	maxUploadBytes = 10 << 20
	previewLimit   = 800
)

var (
	amountRE      = regexp.MustCompile(`[0-9]+[.,][0-9]{2}`)
	currencyRE    = regexp.MustCompile(`(EUR|€|USD|\$|GBP|£|INR|₹)`)
	spacedDateRE  = regexp.MustCompile(`\b(\d{4}\s*[./-]\s*\d{2}\s*[./-]\s*\d{2})\b`)
	compactDateRE = regexp.MustCompile(`\b(\d{4}[./-]\d{2}[./-]\d{2})\b`)
	shortDateRE   = regexp.MustCompile(`\b(\d{2}[./-]\d{2}[./-]\d{2,4})\b`)
	spacesRE      = regexp.MustCompile(`\s+`)
	leadingJunkRE = regexp.MustCompile(`^[^A-Za-z]+`)
	letterRE      = regexp.MustCompile(`[A-Za-z]`)
	nonDigitRE    = regexp.MustCompile(`\D`)
)

var noisePrefixes = []string{
	"duplicate", "copy", "merchant copy", "customer copy",
	"thank you", "tax invoice", "invoice", "receipt",
}

var allowedImageTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/jpg":  true,
}

type fieldValue struct {
	Value      any     `json:"value"`
	Confidence float64 `json:"confidence"`
}

type extractionResponse struct {
	ReceiptID      string                `json:"receipt_id"`
	Fields         map[string]fieldValue `json:"fields"`
	RawTextPreview string                `json:"raw_text_preview"`
}

func (s *server) handleExtract(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.writeDetail(w, http.StatusBadRequest, "Invalid multipart upload.")
		return
	}
	file, header, err := r.FormFile("receipt")
	if err != nil {
		s.writeDetail(w, http.StatusUnprocessableEntity, "Field required: receipt")
		return
	}
	defer file.Close()

	if !allowedImageTypes[header.Header.Get("Content-Type")] {
		s.writeDetail(w, http.StatusBadRequest, "Upload a PNG/JPEG image.")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		s.writeDetail(w, http.StatusBadRequest, "Could not read upload.")
		return
	}

	text := readableText(data)
	resp := extractionResponse{
		ReceiptID:      newReceiptID(),
		Fields:         parseReceiptFields(text),
		RawTextPreview: truncate(text, previewLimit),
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func newReceiptID() string {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "r_00000000"
	}
	return "r_" + hex.EncodeToString(b[:])
}

// readableText returns the upload as text when at least 70% of its bytes
// are printable, otherwise empty: binary image data yields an unreadable
// receipt rather than garbage field values.
func readableText(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	printable := 0
	for _, r := range string(data) {
		if unicode.IsPrint(r) || r == '\n' || r == '\r' || r == '\t' {
			printable++
		}
	}
	total := len([]rune(string(data)))
	if total == 0 || float64(printable)/float64(total) < 0.7 {
		return ""
	}
	return string(data)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func parseReceiptFields(text string) map[string]fieldValue {
	var lines []string
	for _, l := range strings.Split(text, "\n") {
		if strings.TrimSpace(l) == "" {
			continue
		}
		lines = append(lines, cleanLine(l))
	}

	merchant, merchantConf := findMerchant(lines)
	date, dateConf := findDate(text)
	total, totalConf := findTotal(lines)
	currency, currencyConf := findCurrency(text)

	return map[string]fieldValue{
		"merchant": {Value: merchant, Confidence: merchantConf},
		"date":     {Value: date, Confidence: dateConf},
		"total":    {Value: total, Confidence: totalConf},
		"currency": {Value: currency, Confidence: currencyConf},
		// Category is left for the caller's suggestion scorer to fill.
		"category": {Value: "Uncategorized", Confidence: 0.2},
	}
}

func cleanLine(s string) string {
	return spacesRE.ReplaceAllString(strings.TrimSpace(s), " ")
}

func isNoiseLine(line string) bool {
	low := strings.ToLower(line)
	if len(low) < 3 {
		return true
	}
	for _, p := range noisePrefixes {
		if strings.Contains(low, p) {
			return true
		}
	}
	return false
}

// findMerchant picks the first header-like line: within the first 12 lines,
// skipping noise and address-heavy lines. Without OCR token confidences the
// mock reports the parser's no-signal confidence of 0.5.
func findMerchant(lines []string) (string, float64) {
	var candidates []string
	limit := len(lines)
	if limit > 12 {
		limit = 12
	}
	for _, line := range lines[:limit] {
		l := cleanLine(line)
		if l == "" || isNoiseLine(l) {
			continue
		}
		digits := nonDigitRE.ReplaceAllString(l, "")
		if len(digits) >= 6 && len(l) > 8 {
			continue
		}
		if letterRE.MatchString(l) {
			candidates = append(candidates, l)
		}
	}

	if len(candidates) == 0 {
		if len(lines) > 0 {
			return lines[0], 0.4
		}
		return "", 0.4
	}

	merchant := strings.TrimSpace(leadingJunkRE.ReplaceAllString(candidates[0], ""))
	return merchant, 0.5
}

func findDate(text string) (string, float64) {
	if m := spacedDateRE.FindStringSubmatch(text); m != nil {
		return spacesRE.ReplaceAllString(m[1], ""), 0.8
	}
	if m := compactDateRE.FindStringSubmatch(text); m != nil {
		return m[1], 0.75
	}
	if m := shortDateRE.FindStringSubmatch(text); m != nil {
		return m[1], 0.75
	}
	return "", 0.3
}

func findCurrency(text string) (string, float64) {
	if m := currencyRE.FindStringSubmatch(text); m != nil {
		return m[1], 0.9
	}
	return "EUR", 0.6
}

// amountOnLines searches bottom-up for a line containing keyword (totals sit
// near the bottom of a receipt) and returns the last money-like number on it.
func amountOnLines(lines []string, keyword, avoid string) string {
	for i := len(lines) - 1; i >= 0; i-- {
		low := strings.ToLower(lines[i])
		if !strings.Contains(low, keyword) {
			continue
		}
		if avoid != "" && strings.Contains(low, avoid) {
			continue
		}
		matches := amountRE.FindAllString(strings.ReplaceAll(lines[i], ",", "."), -1)
		if len(matches) > 0 {
			return matches[len(matches)-1]
		}
	}
	return ""
}

func allAmounts(lines []string, lastN int) []float64 {
	start := 0
	if len(lines) > lastN {
		start = len(lines) - lastN
	}
	var nums []float64
	for _, line := range lines[start:] {
		for _, m := range amountRE.FindAllString(strings.ReplaceAll(line, ",", "."), -1) {
			if n, err := strconv.ParseFloat(m, 64); err == nil {
				nums = append(nums, n)
			}
		}
	}
	return nums
}

func normalizeAmount(s string) string {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// findTotal prefers an explicit TOTAL line, falls back through AMOUNT DUE and
// BALANCE DUE, sanity-checks against subtotal+tax when both are present, and
// as a last resort takes the largest amount near the bottom.
func findTotal(lines []string) (string, float64) {
	total := amountOnLines(lines, "total", "sub")
	if total == "" {
		total = amountOnLines(lines, "amount due", "")
	}
	if total == "" {
		total = amountOnLines(lines, "balance due", "")
	}

	subtotal := amountOnLines(lines, "sub total", "")
	if subtotal == "" {
		subtotal = amountOnLines(lines, "subtotal", "")
	}
	tax := amountOnLines(lines, "tax", "")

	totalN := normalizeAmount(total)
	subtotalN := normalizeAmount(subtotal)
	taxN := normalizeAmount(tax)

	if subtotalN != "" && taxN != "" {
		st, errST := strconv.ParseFloat(subtotalN, 64)
		tx, errTX := strconv.ParseFloat(taxN, 64)
		if errST == nil && errTX == nil {
			expected := st + tx
			if totalN != "" {
				if t, err := strconv.ParseFloat(totalN, 64); err == nil {
					// A scanned total far from subtotal+tax is a misread digit.
					if diff := t - expected; diff > 1.0 || diff < -1.0 {
						return fmt.Sprintf("%.2f", expected), 0.7
					}
					return fmt.Sprintf("%.2f", t), 0.8
				}
			}
			return fmt.Sprintf("%.2f", expected), 0.65
		}
	}

	if totalN != "" {
		if t, err := strconv.ParseFloat(totalN, 64); err == nil {
			return fmt.Sprintf("%.2f", t), 0.8
		}
		return totalN, 0.6
	}

	if amounts := allAmounts(lines, 30); len(amounts) > 0 {
		maxAmount := amounts[0]
		for _, a := range amounts[1:] {
			if a > maxAmount {
				maxAmount = a
			}
		}
		return fmt.Sprintf("%.2f", maxAmount), 0.5
	}

	return "", 0.3
}
