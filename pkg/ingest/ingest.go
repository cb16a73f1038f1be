package ingest

import (
	"errors"
	"strconv"

	"github.com/ritzau/net-topology/pkg/graph"
	"github.com/ritzau/net-topology/pkg/logging"
	"github.com/ritzau/net-topology/pkg/model"
	"github.com/ritzau/net-topology/pkg/snapshot"
)

// Ingester applies decoded asset batches to a topology graph.
// It is the single writer of the graph during a run.
type Ingester struct {
	graph   *graph.Graph
	logger  *logging.Logger
	report  Report
	aliases map[aliasKey]string // Bare resource ID to the node key first used for it
}

// aliasKey identifies a resource that records reference by bare ID
type aliasKey struct {
	rt model.ResourceType
	id string
}

// New creates an ingester writing into g
func New(g *graph.Graph) *Ingester {
	return &Ingester{
		graph:   g,
		logger:  logging.New("ingest"),
		report:  NewReport(),
		aliases: make(map[aliasKey]string),
	}
}

// Graph returns the graph being built
func (in *Ingester) Graph() *graph.Graph {
	return in.graph
}

// Report returns the accumulated report of every batch applied so far
func (in *Ingester) Report() Report {
	r := NewReport()
	r.Merge(in.report)
	return r
}

// rule ingests one record collection of a batch and returns the number of
// records placed in the graph plus one warning per skipped record
type rule struct {
	category Category
	apply    func(in *Ingester, assets *snapshot.Assets) (int, []Warning)
}

// rules run in order; records that carry names or full ARNs come first so
// that later rules only add structure and resolve bare IDs to those keys
var rules = []rule{
	{CategoryTransitGateways, (*Ingester).ingestTransitGateways},
	{CategoryVPCs, (*Ingester).ingestVPCs},
	{CategoryVPNGateways, (*Ingester).ingestVPNGateways},
	{CategoryDirectConnectConnections, (*Ingester).ingestDirectConnectConnections},
	{CategoryDirectConnectGateways, (*Ingester).ingestDirectConnectGateways},
	{CategoryTGWAttachments, (*Ingester).ingestTGWAttachments},
	{CategoryTGWPeerings, (*Ingester).ingestTGWPeerings},
	{CategoryVPCPeerings, (*Ingester).ingestVPCPeerings},
	{CategoryVirtualInterfaces, (*Ingester).ingestVirtualInterfaces},
}

// Apply ingests one asset batch and returns the report for that batch.
// Problems with individual records are reported as warnings and never stop the batch.
func (in *Ingester) Apply(assets *snapshot.Assets) Report {
	report := NewReport()
	report.Batches = 1
	if assets == nil {
		return report
	}

	for _, r := range rules {
		ingested, warnings := r.apply(in, assets)
		report.Ingested[r.category] += ingested
		report.Skipped[r.category] += len(warnings)
		for _, w := range warnings {
			in.logger.Warn("skipping record", "category", w.Category, "record", w.Record, "error", w.Err)
		}
		report.Warnings = append(report.Warnings, warnings...)
	}

	in.logger.Debug("batch ingested",
		"records", assets.RecordCount(),
		"ingested", report.TotalIngested(),
		"skipped", report.TotalSkipped(),
		"nodes", in.graph.NodeCount(),
		"edges", in.graph.EdgeCount(),
	)

	in.report.Merge(report)
	return report
}

// Build ingests the batches in order into a fresh graph
func Build(batches []*snapshot.Assets) (*graph.Graph, Report) {
	in := New(graph.New())
	for _, b := range batches {
		in.Apply(b)
	}
	return in.graph, in.Report()
}

func warn(category Category, record string, err error) Warning {
	return Warning{Category: category, Record: record, Err: err, Reason: err.Error()}
}

func (in *Ingester) ingestTransitGateways(a *snapshot.Assets) (int, []Warning) {
	var n int
	var warnings []Warning
	for _, tgw := range a.TransitGateways {
		if err := in.AddTransitGateway(tgw); err != nil {
			warnings = append(warnings, warn(CategoryTransitGateways, tgw.Name, err))
			continue
		}
		n++
	}
	return n, warnings
}

func (in *Ingester) ingestVPCs(a *snapshot.Assets) (int, []Warning) {
	var n int
	var warnings []Warning
	for _, vpc := range a.Vpcs {
		if err := in.AddVPC(vpc); err != nil {
			warnings = append(warnings, warn(CategoryVPCs, vpc.Name, err))
			continue
		}
		n++
	}
	return n, warnings
}

func (in *Ingester) ingestTGWAttachments(a *snapshot.Assets) (int, []Warning) {
	var n int
	var warnings []Warning
	for _, att := range a.TransitGatewayAttachments {
		if err := in.AddTGWAttachment(att); err != nil {
			warnings = append(warnings, warn(CategoryTGWAttachments, firstNonEmpty(att.TransitGatewayAttachmentID, att.ResourceArn, att.TgwArn), err))
			continue
		}
		n++
	}
	return n, warnings
}

func (in *Ingester) ingestTGWPeerings(a *snapshot.Assets) (int, []Warning) {
	var n int
	var warnings []Warning
	for _, p := range a.TransitGatewayPeeringAttachments {
		if err := in.AddTGWPeering(p); err != nil {
			warnings = append(warnings, warn(CategoryTGWPeerings, firstNonEmpty(p.AssetID, p.RequesterArn), err))
			continue
		}
		n++
	}
	return n, warnings
}

func (in *Ingester) ingestVPCPeerings(a *snapshot.Assets) (int, []Warning) {
	var n int
	var warnings []Warning
	for _, p := range a.VpcPeeringConnections {
		if err := in.AddVPCPeering(p); err != nil {
			warnings = append(warnings, warn(CategoryVPCPeerings, firstNonEmpty(p.VpcPeeringConnectionID, p.RequesterVpcInfo.VpcArn), err))
			continue
		}
		n++
	}
	return n, warnings
}

func (in *Ingester) ingestVPNGateways(a *snapshot.Assets) (int, []Warning) {
	var n int
	var warnings []Warning
	for _, vgw := range a.VpnGateways {
		key, err := in.AddVPNGateway(vgw)
		if err != nil {
			warnings = append(warnings, warn(CategoryVPNGateways, vgw.AssetID, err))
			continue
		}
		n++

		for i, att := range vgw.VpcAttachments {
			if err := in.AddVPNGatewayAttachment(key, att.VpcArn); err != nil {
				warnings = append(warnings, warn(CategoryVPNGateways, vgw.AssetID+" vpcAttachments["+strconv.Itoa(i)+"]", err))
			}
		}
	}
	return n, warnings
}

func (in *Ingester) ingestDirectConnectGateways(a *snapshot.Assets) (int, []Warning) {
	var n int
	var warnings []Warning
	for _, dcg := range a.DirectConnectGateways {
		key, err := in.AddDirectConnectGateway(dcg)
		if err != nil {
			warnings = append(warnings, warn(CategoryDirectConnectGateways, dcg.DirectConnectGatewayName, err))
			continue
		}
		n++

		for _, assoc := range dcg.Associations {
			if err := in.AddGatewayAssociation(key, assoc); err != nil {
				warnings = append(warnings, warn(CategoryDirectConnectGateways, firstNonEmpty(assoc.AssociationID, dcg.DirectConnectGatewayID), err))
			}
		}
	}
	return n, warnings
}

func (in *Ingester) ingestDirectConnectConnections(a *snapshot.Assets) (int, []Warning) {
	var n int
	var warnings []Warning
	for _, conn := range a.DirectConnectConnections {
		if _, err := in.AddDirectConnectConnection(conn); err != nil {
			warnings = append(warnings, warn(CategoryDirectConnectConnections, conn.ConnectionName, err))
			continue
		}
		n++
	}
	return n, warnings
}

func (in *Ingester) ingestVirtualInterfaces(a *snapshot.Assets) (int, []Warning) {
	var n int
	var warnings []Warning
	for _, vif := range a.DirectConnectVirtualInterfaces {
		err := in.AddVirtualInterface(vif)
		if err == nil {
			n++
			continue
		}

		// A virtual interface may yield two edges; report each failure separately
		var joined interface{ Unwrap() []error }
		if errors.As(err, &joined) {
			for _, e := range joined.Unwrap() {
				warnings = append(warnings, warn(CategoryVirtualInterfaces, firstNonEmpty(vif.AssetID, vif.ConnectionID), e))
			}
			continue
		}
		warnings = append(warnings, warn(CategoryVirtualInterfaces, firstNonEmpty(vif.AssetID, vif.ConnectionID), err))
	}
	return n, warnings
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return "<unidentified>"
}
