package testutil

import (
	"bytes"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

// ParseHTML parses a page or fragment into a goquery document for assertions.
func ParseHTML(t testing.TB, body []byte) *goquery.Document {
	t.Helper()

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	return doc
}

// ToastMessage returns the text of the first toast in doc, trimmed.
func ToastMessage(doc *goquery.Document) string {
	return strings.TrimSpace(doc.Find(".message-toast .message-content span").First().Text())
}
