package notionsync

import (
	"github.com/jomei/notionapi"

	"github.com/dvloznov/nett/internal/domain"
)

// Property names of the transactions database.
const (
	PropDescription   = "Description"
	PropTransactionID = "Transaction ID"
	PropDate          = "Date"
	PropAmount        = "Amount"
	PropAccount       = "Account"
	PropCategory      = "Category"
	PropSubcategory   = "Subcategory"
)

func richText(content string) []notionapi.RichText {
	if content == "" {
		return []notionapi.RichText{}
	}
	return []notionapi.RichText{
		{
			Type: notionapi.ObjectTypeText,
			Text: &notionapi.Text{
				Content: content,
			},
		},
	}
}

// TransactionToNotionProperties converts a transaction to page properties.
// Subcategory is always written, so clearing it empties the page's value.
func TransactionToNotionProperties(txn domain.Transaction) notionapi.Properties {
	amount, _ := txn.Amount.Float64()
	date := notionapi.Date(txn.Date)

	props := notionapi.Properties{
		PropDescription: notionapi.TitleProperty{
			Title: richText(txn.Name),
		},
		PropTransactionID: notionapi.RichTextProperty{
			RichText: richText(txn.ID),
		},
		PropDate: notionapi.DateProperty{
			Date: &notionapi.DateObject{Start: &date},
		},
		PropAmount: notionapi.NumberProperty{
			Number: amount,
		},
		PropSubcategory: notionapi.RichTextProperty{
			RichText: richText(txn.SubcategoryName()),
		},
	}

	if txn.AccountName != "" {
		props[PropAccount] = notionapi.RichTextProperty{
			RichText: richText(txn.AccountName),
		}
	}

	if name := txn.CategoryName(); name != "" {
		props[PropCategory] = notionapi.SelectProperty{
			Select: notionapi.Option{
				Name: name,
			},
		}
	}

	return props
}

// extractTransactionID extracts the transaction ID from a Notion page's properties.
// Returns empty string if not found.
func extractTransactionID(page notionapi.Page) string {
	if prop, ok := page.Properties[PropTransactionID]; ok {
		if rt, ok := prop.(*notionapi.RichTextProperty); ok {
			if len(rt.RichText) > 0 {
				return rt.RichText[0].PlainText
			}
		}
	}
	return ""
}
