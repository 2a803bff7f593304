// Package validate re-checks model output against the business rules that
// must hold regardless of what the model claims.
package validate

import (
	"strings"

	"golang.org/x/text/cases"
)

// Casers are stateful, so one is built per call.
func foldCase(s string) string {
	return cases.Fold().String(s)
}

// Product is one extracted product line together with the client and
// contract of the document it came from. Its index in the product list is
// the id the grouping model refers to.
type Product struct {
	Name         string `json:"product_name"`
	Quantity     string `json:"quantity"`
	Unit         string `json:"unit"`
	Client       string `json:"client_name"`
	ContractType string `json:"contract_type"`
	Description  string `json:"description"`
	Source       string `json:"-"`
}

// Group is a set of equivalent products.
type Group struct {
	CanonicalName string
	ProductIDs    []int
	Clients       []string // distinct, in first-seen order
}

// ClientKey is the identity used to count distinct clients.
func ClientKey(name string) string {
	return foldCase(strings.Join(strings.Fields(name), " "))
}

// ValidateGroups recomputes the distinct clients behind each proposed group
// and keeps only groups that span at least two. Ids outside products are
// ignored and duplicates collapsed; canonical names are kept as proposed.
func ValidateGroups(groups []Group, products []Product) []Group {
	var out []Group
	for _, g := range groups {
		var (
			ids     []int
			clients []string
			seenID  = map[int]bool{}
			seenCli = map[string]bool{}
		)
		for _, id := range g.ProductIDs {
			if id < 0 || id >= len(products) || seenID[id] {
				continue
			}
			seenID[id] = true
			ids = append(ids, id)
			client := products[id].Client
			if k := ClientKey(client); !seenCli[k] {
				seenCli[k] = true
				clients = append(clients, strings.TrimSpace(client))
			}
		}
		if len(clients) < 2 {
			continue
		}
		out = append(out, Group{CanonicalName: g.CanonicalName, ProductIDs: ids, Clients: clients})
	}
	return out
}

// ClientEntry is one client's view of a consolidated product.
type ClientEntry struct {
	Client       string
	OriginalName string
	Quantity     string // quantity and unit
	Type         string
}

// ConsolidatedRow is one product ordered by several clients.
type ConsolidatedRow struct {
	Product string
	Entries []ClientEntry
}

// ConsolidatedRows builds one row per accepted group with the first product
// of every distinct client.
func ConsolidatedRows(groups []Group, products []Product) []ConsolidatedRow {
	rows := make([]ConsolidatedRow, 0, len(groups))
	for _, g := range groups {
		row := ConsolidatedRow{Product: g.CanonicalName}
		seen := map[string]bool{}
		for _, id := range g.ProductIDs {
			if id < 0 || id >= len(products) {
				continue
			}
			p := products[id]
			k := ClientKey(p.Client)
			if seen[k] {
				continue
			}
			seen[k] = true
			row.Entries = append(row.Entries, ClientEntry{
				Client:       p.Client,
				OriginalName: p.Name,
				Quantity:     strings.TrimSpace(p.Quantity + " " + p.Unit),
				Type:         p.ContractType,
			})
		}
		rows = append(rows, row)
	}
	return rows
}

// Columns flattens the row as Product, Client n, Original Name n,
// Quantity n, Type n.
func (r ConsolidatedRow) Columns() ([]string, []string) {
	headers := []string{"Product"}
	values := []string{r.Product}
	for i, e := range r.Entries {
		n := itoa(i + 1)
		headers = append(headers, "Client "+n, "Original Name "+n, "Quantity "+n, "Type "+n)
		values = append(values, e.Client, e.OriginalName, e.Quantity, e.Type)
	}
	return headers, values
}
