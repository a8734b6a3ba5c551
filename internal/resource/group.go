package resource

import (
	"fmt"
	"strconv"
)

// Category identifies one tab of the dashboard.
type Category int

const (
	CategoryCompute Category = iota
	CategoryBuckets
	CategoryDatabases
	CategoryFunctions
)

// Categories lists every category in display order.
var Categories = []Category{CategoryCompute, CategoryBuckets, CategoryDatabases, CategoryFunctions}

func (c Category) String() string {
	switch c {
	case CategoryCompute:
		return "ec2"
	case CategoryBuckets:
		return "s3"
	case CategoryDatabases:
		return "rds"
	case CategoryFunctions:
		return "lambda"
	default:
		return fmt.Sprintf("Category(%d)", int(c))
	}
}

// Title is the human heading for the category.
func (c Category) Title() string {
	switch c {
	case CategoryCompute:
		return "EC2 Instances"
	case CategoryBuckets:
		return "S3 Buckets"
	case CategoryDatabases:
		return "RDS Instances"
	case CategoryFunctions:
		return "Lambda Functions"
	default:
		return c.String()
	}
}

// Columns are the table headings for the category's rows.
func (c Category) Columns() []string {
	switch c {
	case CategoryCompute:
		return []string{"ID", "STATE", "TYPE", "PUBLIC IP", "PRIVATE IP", "AMI", "AMI ID"}
	case CategoryBuckets:
		return []string{"NAME", "CREATED"}
	case CategoryDatabases:
		return []string{"IDENTIFIER", "STATUS", "ENGINE", "ENDPOINT"}
	case CategoryFunctions:
		return []string{"NAME", "RUNTIME", "MEMORY (MB)", "TIMEOUT (S)"}
	default:
		return nil
	}
}

// Group is a category together with its rendered rows.
type Group struct {
	Category Category
	Rows     [][]string
}

// Len is the number of items in the group.
func (g Group) Len() int { return len(g.Rows) }

// Rows renders the items of one category as string cells matching Columns.
func (inv *Inventory) Rows(c Category) [][]string {
	if inv == nil {
		return nil
	}
	var rows [][]string
	switch c {
	case CategoryCompute:
		for _, i := range inv.Compute {
			rows = append(rows, []string{i.ID, i.State, i.Type, i.PublicIP, i.PrivateIP, i.AMIName, i.AMIID})
		}
	case CategoryBuckets:
		for _, b := range inv.Buckets {
			rows = append(rows, []string{b.Name, b.CreationDate})
		}
	case CategoryDatabases:
		for _, d := range inv.Databases {
			rows = append(rows, []string{d.Identifier, d.Status, d.Engine, d.Endpoint})
		}
	case CategoryFunctions:
		for _, f := range inv.Functions {
			rows = append(rows, []string{f.Name, f.Runtime, strconv.Itoa(int(f.Memory)), strconv.Itoa(int(f.Timeout))})
		}
	}
	return rows
}

// Groups returns the non-empty categories in display order.
func (inv *Inventory) Groups() []Group {
	var groups []Group
	for _, c := range Categories {
		rows := inv.Rows(c)
		if len(rows) == 0 {
			continue
		}
		groups = append(groups, Group{Category: c, Rows: rows})
	}
	return groups
}

// Count returns the number of items in one category.
func (inv *Inventory) Count(c Category) int {
	if inv == nil {
		return 0
	}
	switch c {
	case CategoryCompute:
		return len(inv.Compute)
	case CategoryBuckets:
		return len(inv.Buckets)
	case CategoryDatabases:
		return len(inv.Databases)
	case CategoryFunctions:
		return len(inv.Functions)
	}
	return 0
}
