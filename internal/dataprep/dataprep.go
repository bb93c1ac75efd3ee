// Package dataprep turns the raw evaluation source files (an expected-output
// text dump and an email dump) into matched dataset records ready for upload
// to the tracking platform.
package dataprep

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/orderlens/orderlens/internal/schema"
)

// Record is one matched dataset row: an email, its PDF attachment filename,
// and the known-correct extraction (nil when no expected record matched).
type Record struct {
	Filename string
	Email    string
	Expected *schema.OrderExtraction
}

// ParseExpectedOutput parses the expected-output dump: records delimited by
// "Buyer:" headers, fields as "• key: value" bullet lines, products opened
// by a "position" bullet.
func ParseExpectedOutput(r io.Reader) ([]schema.OrderExtraction, error) {
	var (
		records []schema.OrderExtraction
		current *schema.OrderExtraction
	)

	flush := func() {
		if current != nil {
			records = append(records, *current)
			current = nil
		}
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		switch line {
		case "Buyer:":
			flush()
			current = &schema.OrderExtraction{}
			continue
		case "Order:", "Product:", "Products:":
			continue
		}

		if !strings.HasPrefix(line, "•") {
			continue
		}
		field := strings.TrimSpace(strings.TrimPrefix(line, "•"))
		key, value, ok := strings.Cut(field, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		if current == nil {
			current = &schema.OrderExtraction{}
		}
		if err := setField(current, key, value); err != nil {
			return nil, fmt.Errorf("field %q: %w", key, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	flush()

	return records, nil
}

// setField assigns one bullet field onto the record. A "position" bullet
// opens a new product line; article_code and quantity fill the last one.
func setField(rec *schema.OrderExtraction, key, value string) error {
	switch key {
	case "position":
		pos, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid position %q: %w", value, err)
		}
		rec.Products = append(rec.Products, schema.Product{Position: pos})
	case "article_code":
		if len(rec.Products) == 0 {
			return fmt.Errorf("article_code before any position")
		}
		rec.Products[len(rec.Products)-1].ArticleCode = value
	case "quantity":
		if len(rec.Products) == 0 {
			return fmt.Errorf("quantity before any position")
		}
		qty, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid quantity %q: %w", value, err)
		}
		rec.Products[len(rec.Products)-1].Quantity = qty
	case "buyer_company_name":
		rec.BuyerCompanyName = &value
	case "buyer_person_name":
		rec.BuyerPersonName = &value
	case "buyer_email_address":
		rec.BuyerEmailAddress = &value
	case "order_number":
		rec.OrderNumber = &value
	case "order_date":
		rec.OrderDate = &value
	case "delivery_address_street":
		rec.DeliveryAddressStreet = &value
	case "delivery_address_city":
		rec.DeliveryAddressCity = &value
	case "delivery_address_postal_code":
		rec.DeliveryAddressPostal = &value
	default:
		// Unknown bullet keys are ignored; the dumps carry occasional
		// free-text annotations.
	}
	return nil
}

var (
	attachmentRe     = regexp.MustCompile(`attachment:\s*(.+?)(?:\n|$)`)
	attachmentLineRe = regexp.MustCompile(`(?m)^attachment:.*\n?`)
	uuidPrefixRe     = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}:`)
	senderRe         = regexp.MustCompile(`Von:\s*(.+?)\s+([a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,})`)

	orderNumberRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Bestellung\s+BT\s+(\d+)`),
		regexp.MustCompile(`(?i)Hofbauer[_-](\d+)`),
		regexp.MustCompile(`(?i)Bestellung\s+(?:Nr\.\s+)?(\S+)`),
		regexp.MustCompile(`(?i)order[_\s]+number[:\s]+(\S+)`),
	}
)

// EmailBlock is one email from the dump plus what could be pulled out of it.
type EmailBlock struct {
	Content     string
	Attachment  string
	SenderName  string
	SenderEmail string
	OrderNumber string
}

// ParseEmails splits the email dump into blocks. A line starting with
// "attachment:" opens a new block; the attachment filename is stripped of
// any leading storage-UUID prefix.
func ParseEmails(content string) []EmailBlock {
	var rawBlocks []string
	var current []string

	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(line, "attachment:") && len(current) > 0 {
			rawBlocks = append(rawBlocks, strings.Join(current, "\n"))
			current = current[:0]
		}
		current = append(current, line)
	}
	if len(current) > 0 {
		rawBlocks = append(rawBlocks, strings.Join(current, "\n"))
	}

	blocks := make([]EmailBlock, 0, len(rawBlocks))
	for _, raw := range rawBlocks {
		block := EmailBlock{
			Content: strings.TrimSpace(attachmentLineRe.ReplaceAllString(raw, "")),
		}

		if m := attachmentRe.FindStringSubmatch(raw); m != nil {
			block.Attachment = uuidPrefixRe.ReplaceAllString(strings.TrimSpace(m[1]), "")
		}
		if m := senderRe.FindStringSubmatch(raw); m != nil {
			block.SenderName = strings.TrimSpace(m[1])
			block.SenderEmail = strings.TrimSpace(m[2])
		}
		for _, re := range orderNumberRes {
			if m := re.FindStringSubmatch(raw); m != nil {
				block.OrderNumber = strings.TrimSpace(m[1])
				break
			}
		}

		blocks = append(blocks, block)
	}

	return blocks
}

// Match joins email blocks to expected records by order number.
func Match(emails []EmailBlock, expected []schema.OrderExtraction) []Record {
	lookup := make(map[string]*schema.OrderExtraction, len(expected))
	for i := range expected {
		if expected[i].OrderNumber != nil {
			lookup[*expected[i].OrderNumber] = &expected[i]
		}
	}

	records := make([]Record, 0, len(emails))
	for _, email := range emails {
		rec := Record{
			Filename: email.Attachment,
			Email:    email.Content,
		}
		if email.OrderNumber != "" {
			rec.Expected = lookup[email.OrderNumber]
		}
		records = append(records, rec)
	}
	return records
}

// ExpectedJSON encodes the record's expected output for the CSV column, or
// returns "" when no expected record matched.
func (r Record) ExpectedJSON() (string, error) {
	if r.Expected == nil {
		return "", nil
	}
	b, err := json.Marshal(r.Expected)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
