package ingest

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownResourceType is reported when an attachment names a resource type outside the known set
	ErrUnknownResourceType = errors.New("unknown resource type")

	// ErrMissingLinkage is reported when a record lacks a field needed to place it in the graph
	ErrMissingLinkage = errors.New("missing required linkage field")
)

// Category identifies an asset record collection
type Category string

const (
	CategoryTransitGateways          Category = "transit-gateways"
	CategoryVPCs                     Category = "vpcs"
	CategoryTGWAttachments           Category = "tgw-attachments"
	CategoryTGWPeerings              Category = "tgw-peerings"
	CategoryVPCPeerings              Category = "vpc-peerings"
	CategoryVPNGateways              Category = "vpn-gateways"
	CategoryDirectConnectGateways    Category = "dx-gateways"
	CategoryDirectConnectConnections Category = "dx-connections"
	CategoryVirtualInterfaces        Category = "dx-virtual-interfaces"
)

// Warning describes one skipped record
type Warning struct {
	Category Category `json:"category"`
	Record   string   `json:"record"` // Best available identifier of the record
	Err      error    `json:"-"`
	Reason   string   `json:"reason"`
}

func (w Warning) Error() string {
	return fmt.Sprintf("%s %s: %v", w.Category, w.Record, w.Err)
}

func (w Warning) Unwrap() error {
	return w.Err
}

// Report summarizes what an ingestion pass did
type Report struct {
	Batches  int              `json:"batches"`
	Ingested map[Category]int `json:"ingested"`
	Skipped  map[Category]int `json:"skipped"`
	Warnings []Warning        `json:"warnings"`
}

// NewReport creates an empty report
func NewReport() Report {
	return Report{
		Ingested: make(map[Category]int),
		Skipped:  make(map[Category]int),
	}
}

// Merge adds the counts and warnings of other into r
func (r *Report) Merge(other Report) {
	if r.Ingested == nil {
		r.Ingested = make(map[Category]int)
	}
	if r.Skipped == nil {
		r.Skipped = make(map[Category]int)
	}
	r.Batches += other.Batches
	for c, n := range other.Ingested {
		r.Ingested[c] += n
	}
	for c, n := range other.Skipped {
		r.Skipped[c] += n
	}
	r.Warnings = append(r.Warnings, other.Warnings...)
}

// TotalIngested returns the number of records placed in the graph
func (r *Report) TotalIngested() int {
	total := 0
	for _, n := range r.Ingested {
		total += n
	}
	return total
}

// TotalSkipped returns the number of skipped records
func (r *Report) TotalSkipped() int {
	total := 0
	for _, n := range r.Skipped {
		total += n
	}
	return total
}
