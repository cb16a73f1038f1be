package ingest

import (
	"errors"
	"testing"

	"github.com/ritzau/net-topology/pkg/graph"
	"github.com/ritzau/net-topology/pkg/model"
	"github.com/ritzau/net-topology/pkg/snapshot"
)

const (
	tgwARN  = "arn:aws:ec2:us-east-1:111:transit-gateway/tgw-1"
	tgw2ARN = "arn:aws:ec2:eu-west-1:222:transit-gateway/tgw-2"
	vpcARN  = "arn:aws:ec2:us-east-1:111:vpc/vpc-1"
	vpc2ARN = "arn:aws:ec2:us-east-1:222:vpc/vpc-2"
	vgwARN  = "arn:aws:ec2:us-east-1:111:vpn-gateway/vgw-1"
)

func TestTGWAttachment(t *testing.T) {
	in := New(graph.New())
	report := in.Apply(&snapshot.Assets{
		TransitGatewayAttachments: []snapshot.TransitGatewayAttachment{{
			TgwArn:                     tgwARN,
			ResourceArn:                vpcARN,
			ResourceType:               "VPC",
			TransitGatewayAttachmentID: "tgw-attach-1",
		}},
	})

	g := in.Graph()
	if g.NodeCount() != 2 || g.EdgeCount() != 1 {
		t.Fatalf("Expected 2 nodes and 1 edge, got %d and %d", g.NodeCount(), g.EdgeCount())
	}

	tgw, _ := g.Node(tgwARN)
	vpc, _ := g.Node(vpcARN)
	if tgw.ResourceType != model.ResourceTGW || vpc.ResourceType != model.ResourceVPC {
		t.Errorf("Unexpected node types: %s, %s", tgw.ResourceType, vpc.ResourceType)
	}

	edge, ok := g.Edge(tgwARN, vpcARN)
	if !ok {
		t.Fatal("Attachment edge not found")
	}
	if edge.Kind != model.KindTGWAttach || edge.Color != "black" || edge.Title != "tgw-attach-1" {
		t.Errorf("Unexpected edge attributes: %+v", edge)
	}

	if report.Ingested[CategoryTGWAttachments] != 1 || report.TotalSkipped() != 0 {
		t.Errorf("Unexpected report: %+v", report)
	}
}

func TestMalformedPrefixMergesWithCanonicalARN(t *testing.T) {
	in := New(graph.New())
	in.Apply(&snapshot.Assets{
		TransitGateways: []snapshot.TransitGateway{{
			AssetID: "GARN:aws:ec2:us-east-1:111:transit-gateway/TGW-1",
			Name:    "core",
		}},
		TransitGatewayAttachments: []snapshot.TransitGatewayAttachment{{
			TgwArn:       tgwARN,
			ResourceArn:  vpcARN,
			ResourceType: "TGW_RESOURCE_TYPE_VPC",
		}},
	})

	g := in.Graph()
	if g.NodeCount() != 2 {
		t.Fatalf("Expected 2 nodes, got %d", g.NodeCount())
	}

	tgw, ok := g.Node(tgwARN)
	if !ok {
		t.Fatal("TGW node not found under canonical key")
	}
	if tgw.Name != "core" || tgw.Title != "core ("+tgwARN+")" {
		t.Errorf("Expected the named TGW to be kept, got %+v", tgw)
	}
}

func TestAttachmentSkipped(t *testing.T) {
	tests := []struct {
		name    string
		att     snapshot.TransitGatewayAttachment
		wantErr error
	}{
		{
			name:    "unknown resource type",
			att:     snapshot.TransitGatewayAttachment{TgwArn: tgwARN, ResourceArn: vpcARN, ResourceType: "CONNECT"},
			wantErr: ErrUnknownResourceType,
		},
		{
			name:    "missing resource arn",
			att:     snapshot.TransitGatewayAttachment{TgwArn: tgwARN, ResourceType: "VPC"},
			wantErr: ErrMissingLinkage,
		},
		{
			name:    "missing tgw arn",
			att:     snapshot.TransitGatewayAttachment{ResourceArn: vpcARN, ResourceType: "VPC"},
			wantErr: ErrMissingLinkage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := New(graph.New())
			report := in.Apply(&snapshot.Assets{
				TransitGatewayAttachments: []snapshot.TransitGatewayAttachment{tt.att},
			})

			if in.Graph().NodeCount() != 0 || in.Graph().EdgeCount() != 0 {
				t.Errorf("Skipped record should not touch the graph, got %d nodes", in.Graph().NodeCount())
			}
			if len(report.Warnings) != 1 {
				t.Fatalf("Expected 1 warning, got %d", len(report.Warnings))
			}
			if !errors.Is(report.Warnings[0], tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, report.Warnings[0].Err)
			}
			if report.Skipped[CategoryTGWAttachments] != 1 {
				t.Errorf("Expected 1 skipped attachment, got %d", report.Skipped[CategoryTGWAttachments])
			}
		})
	}
}

func TestAttachmentNodeType(t *testing.T) {
	tests := []struct {
		raw  snapshot.AttachmentResourceType
		want model.ResourceType
	}{
		{"VPC", model.ResourceVPC},
		{"vpc", model.ResourceVPC},
		{"TGW_RESOURCE_TYPE_VPN", model.ResourceVPNConnection},
		{"DIRECT_CONNECT_GATEWAY", model.ResourceDirectConnectGateway},
		{"direct-connect-gateway", model.ResourceDirectConnectGateway},
	}

	for _, tt := range tests {
		got, err := attachmentNodeType(tt.raw)
		if err != nil {
			t.Errorf("attachmentNodeType(%q) returned error: %v", tt.raw, err)
			continue
		}
		if got != tt.want {
			t.Errorf("attachmentNodeType(%q) = %s, want %s", tt.raw, got, tt.want)
		}
	}

	if _, err := attachmentNodeType("PEERING"); !errors.Is(err, ErrUnknownResourceType) {
		t.Errorf("Expected ErrUnknownResourceType, got %v", err)
	}
}

func TestPeerings(t *testing.T) {
	in := New(graph.New())
	report := in.Apply(&snapshot.Assets{
		TransitGatewayPeeringAttachments: []snapshot.TransitGatewayPeering{
			{RequesterArn: tgwARN, AccepterArn: tgw2ARN, AssetID: "tgw-attach-p1"},
			{RequesterArn: tgwARN},
		},
		VpcPeeringConnections: []snapshot.VPCPeeringConnection{{
			RequesterVpcInfo:       snapshot.VPCInfo{VpcArn: vpcARN},
			AccepterVpcInfo:        snapshot.VPCInfo{VpcArn: vpc2ARN},
			VpcPeeringConnectionID: "pcx-1",
		}},
	})

	g := in.Graph()
	if e, ok := g.Edge(tgwARN, tgw2ARN); !ok || e.Kind != model.KindTGWPeering || e.Color != "red" {
		t.Errorf("Expected red TGW peering edge, got %+v (found=%v)", e, ok)
	}
	if e, ok := g.Edge(vpc2ARN, vpcARN); !ok || e.Kind != model.KindVPCPeering || e.Color != "green" {
		t.Errorf("Expected green VPC peering edge, got %+v (found=%v)", e, ok)
	}
	if report.Skipped[CategoryTGWPeerings] != 1 {
		t.Errorf("Expected the incomplete peering to be skipped, got %+v", report.Skipped)
	}
}

func TestSelfLoopIsWarning(t *testing.T) {
	in := New(graph.New())
	report := in.Apply(&snapshot.Assets{
		TransitGatewayPeeringAttachments: []snapshot.TransitGatewayPeering{
			{RequesterArn: tgwARN, AccepterArn: "GARN:AWS:EC2:US-EAST-1:111:TRANSIT-GATEWAY/TGW-1"},
		},
	})

	if in.Graph().NodeCount() != 0 {
		t.Errorf("Self-loop should not create nodes, got %d", in.Graph().NodeCount())
	}
	if len(report.Warnings) != 1 || !errors.Is(report.Warnings[0], graph.ErrSelfLoop) {
		t.Errorf("Expected a self-loop warning, got %+v", report.Warnings)
	}
}

func TestVPNGatewayAttachments(t *testing.T) {
	in := New(graph.New())
	report := in.Apply(&snapshot.Assets{
		VpnGateways: []snapshot.VPNGateway{{
			AssetID: vgwARN,
			VpcAttachments: []snapshot.VPCAttachment{
				{VpcArn: vpcARN},
				{VpcArn: ""},
			},
		}},
	})

	g := in.Graph()
	e, ok := g.Edge(vgwARN, vpcARN)
	if !ok || e.Kind != model.KindVPNGatewayAttach || e.Color != "purple" {
		t.Errorf("Expected purple VGW attachment edge, got %+v (found=%v)", e, ok)
	}
	if n, _ := g.Node(vgwARN); n.ResourceType != model.ResourceVPNGateway {
		t.Errorf("Expected VGW node, got %s", n.ResourceType)
	}
	if report.Ingested[CategoryVPNGateways] != 1 || report.Skipped[CategoryVPNGateways] != 1 {
		t.Errorf("Expected 1 ingested gateway and 1 skipped attachment, got %+v", report)
	}
}

func TestGatewayAssociationTypeFilter(t *testing.T) {
	in := New(graph.New())
	report := in.Apply(&snapshot.Assets{
		DirectConnectGateways: []snapshot.DirectConnectGateway{{
			DirectConnectGatewayID:   "dcg-1",
			DirectConnectGatewayName: "edge",
			OwnerAccount:             "333",
			Associations: []snapshot.GatewayAssociation{
				{
					AssociationID:     "assoc-1",
					AssociatedGateway: snapshot.AssociatedGateway{Type: "VirtualPrivateGateway", OwnerAccount: "111", Region: "us-east-1", ID: "vgw-1"},
				},
				{
					AssociationID:     "assoc-2",
					AssociatedGateway: snapshot.AssociatedGateway{Type: "transitGateway", OwnerAccount: "111", Region: "us-east-1", ID: "tgw-1"},
				},
			},
		}},
	})

	g := in.Graph()
	dcgKey := "arn:aws:directconnect::333:dx-gateway/dcg-1"

	if g.NodeCount() != 2 || g.EdgeCount() != 1 {
		t.Fatalf("Expected 2 nodes and 1 edge, got %d and %d", g.NodeCount(), g.EdgeCount())
	}
	dcg, ok := g.Node(dcgKey)
	if !ok || dcg.ResourceType != model.ResourceDirectConnectGateway || dcg.Name != "edge" {
		t.Errorf("Unexpected DCG node: %+v (found=%v)", dcg, ok)
	}
	e, ok := g.Edge(dcgKey, vgwARN)
	if !ok || e.Kind != model.KindDCGatewayAssociation || e.Color != "orange" {
		t.Errorf("Expected orange association edge to reconstructed VGW, got %+v (found=%v)", e, ok)
	}
	if report.TotalSkipped() != 0 {
		t.Errorf("Ignored association types are not warnings, got %+v", report.Warnings)
	}
}

func TestVirtualInterface(t *testing.T) {
	in := New(graph.New())
	report := in.Apply(&snapshot.Assets{
		DirectConnectConnections: []snapshot.DirectConnectConnection{{
			ConnectionID:   "dxcon-1",
			ConnectionName: "primary",
			OwnerAccount:   "111",
			Region:         "us-east-1",
		}},
		DirectConnectVirtualInterfaces: []snapshot.VirtualInterface{
			{
				ConnectionID:           "dxcon-1",
				VirtualGatewayID:       "vgw-1",
				DirectConnectGatewayID: "dcg-1",
				AccountID:              "111",
				Region:                 "us-east-1",
				AssetID:                "dxvif-1",
			},
			{ConnectionID: "dxcon-1", AccountID: "111", Region: "us-east-1"},
			{VirtualGatewayID: "vgw-1"},
		},
	})

	g := in.Graph()
	dxKey := "arn:aws:directconnect:us-east-1:111:dxcon/dxcon-1"
	dcgKey := "arn:aws:directconnect::111:dx-gateway/dcg-1"

	dx, ok := g.Node(dxKey)
	if !ok || dx.Name != "primary" || dx.ResourceType != model.ResourceDirectConnectConnection {
		t.Errorf("Unexpected DX node: %+v (found=%v)", dx, ok)
	}
	for _, other := range []string{vgwARN, dcgKey} {
		e, ok := g.Edge(dxKey, other)
		if !ok || e.Kind != model.KindDCVirtualInterface || e.Color != "blue" {
			t.Errorf("Expected blue VIF edge %s <-> %s, got %+v (found=%v)", dxKey, other, e, ok)
		}
	}
	if g.NodeCount() != 3 || g.EdgeCount() != 2 {
		t.Errorf("Expected 3 nodes and 2 edges, got %d and %d", g.NodeCount(), g.EdgeCount())
	}

	if report.Ingested[CategoryVirtualInterfaces] != 1 || report.Skipped[CategoryVirtualInterfaces] != 2 {
		t.Errorf("Unexpected VIF counts: ingested=%d skipped=%d",
			report.Ingested[CategoryVirtualInterfaces], report.Skipped[CategoryVirtualInterfaces])
	}
	for _, w := range report.Warnings {
		if !errors.Is(w, ErrMissingLinkage) {
			t.Errorf("Expected missing linkage warning, got %v", w)
		}
	}
}

func TestBareIDsWithoutAccount(t *testing.T) {
	in := New(graph.New())
	in.Apply(&snapshot.Assets{
		DirectConnectVirtualInterfaces: []snapshot.VirtualInterface{
			{ConnectionID: "dxcon-9", VirtualGatewayID: "vgw-9"},
		},
	})

	g := in.Graph()
	if _, ok := g.Edge("dxcon-9", "vgw-9"); !ok {
		t.Error("Expected edge between bare IDs when account and region are unknown")
	}
	if n, _ := g.Node("vgw-9"); n.ResourceType != model.ResourceVPNGateway {
		t.Errorf("Expected VGW node type, got %s", n.ResourceType)
	}
}

func TestBuildAcrossBatches(t *testing.T) {
	att := snapshot.TransitGatewayAttachment{
		TgwArn:                     tgwARN,
		ResourceArn:                vpcARN,
		ResourceType:               "VPC",
		TransitGatewayAttachmentID: "tgw-attach-1",
	}
	batches := []*snapshot.Assets{
		{TransitGatewayAttachments: []snapshot.TransitGatewayAttachment{att}},
		{
			TransitGatewayAttachments: []snapshot.TransitGatewayAttachment{att},
			Vpcs:                      []snapshot.VPC{{AssetID: vpcARN, Name: "prod"}},
		},
	}

	g, report := Build(batches)

	if report.Batches != 2 {
		t.Errorf("Expected 2 batches, got %d", report.Batches)
	}
	e, _ := g.Edge(tgwARN, vpcARN)
	if e.Multiplicity != 1 {
		t.Errorf("Re-ingesting the same attachment should not add multiplicity, got %d", e.Multiplicity)
	}
	if n, _ := g.Node(vpcARN); n.Name != "prod" {
		t.Errorf("Expected the later batch to name the VPC, got %q", n.Name)
	}
}

func countByType(g *graph.Graph) map[model.ResourceType]int {
	counts := make(map[model.ResourceType]int)
	for _, n := range g.Nodes() {
		counts[n.ResourceType]++
	}
	return counts
}

func TestDirectConnectRecordsWithoutOwnerShareNodes(t *testing.T) {
	in := New(graph.New())
	report := in.Apply(&snapshot.Assets{
		DirectConnectConnections: []snapshot.DirectConnectConnection{
			{ConnectionID: "dxcon-1", ConnectionName: "primary"},
		},
		DirectConnectGateways: []snapshot.DirectConnectGateway{{
			DirectConnectGatewayID:   "dcg-1",
			DirectConnectGatewayName: "core",
			Associations: []snapshot.GatewayAssociation{{
				AssociationID:     "assoc-1",
				AssociatedGateway: snapshot.AssociatedGateway{Type: "virtualPrivateGateway", OwnerAccount: "111", Region: "us-east-1", ID: "vgw-1"},
			}},
		}},
		DirectConnectVirtualInterfaces: []snapshot.VirtualInterface{{
			ConnectionID:           "dxcon-1",
			DirectConnectGatewayID: "dcg-1",
			AccountID:              "111",
			Region:                 "us-east-1",
			AssetID:                "dxvif-1",
		}},
	})
	if report.TotalSkipped() != 0 {
		t.Fatalf("Unexpected warnings: %+v", report.Warnings)
	}

	g := in.Graph()
	counts := countByType(g)
	if counts[model.ResourceDirectConnectConnection] != 1 || counts[model.ResourceDirectConnectGateway] != 1 {
		t.Errorf("Expected one DX and one DCG node, got DX=%d DCG=%d",
			counts[model.ResourceDirectConnectConnection], counts[model.ResourceDirectConnectGateway])
	}
	if n := len(g.Components()); n != 1 {
		t.Errorf("Expected a single component, got %d", n)
	}

	dx, ok := g.Node("dxcon-1")
	if !ok || dx.Name != "primary" {
		t.Errorf("Expected the named connection to be reused, got %+v (found=%v)", dx, ok)
	}
	if _, ok := g.Edge("dxcon-1", "dcg-1"); !ok {
		t.Error("Expected the VIF edge to land on the existing connection and gateway nodes")
	}
	if _, ok := g.Edge("dcg-1", vgwARN); !ok {
		t.Error("Expected the association edge on the same gateway node")
	}
}

func TestHostedInterfaceReusesConnection(t *testing.T) {
	g, _ := Build([]*snapshot.Assets{
		{DirectConnectConnections: []snapshot.DirectConnectConnection{
			{ConnectionID: "dxcon-1", ConnectionName: "primary", OwnerAccount: "999", Region: "us-east-1"},
		}},
		{DirectConnectVirtualInterfaces: []snapshot.VirtualInterface{
			{ConnectionID: "dxcon-1", VirtualGatewayID: "vgw-1", AccountID: "111", Region: "us-east-1"},
		}},
	})

	dxKey := "arn:aws:directconnect:us-east-1:999:dxcon/dxcon-1"
	if counts := countByType(g); counts[model.ResourceDirectConnectConnection] != 1 {
		t.Errorf("Expected one DX node, got %d", counts[model.ResourceDirectConnectConnection])
	}
	if _, ok := g.Edge(dxKey, vgwARN); !ok {
		t.Errorf("Expected the interface to attach to the owner's connection %s", dxKey)
	}
}

func TestInterfaceBeforeConnectionRecord(t *testing.T) {
	g, _ := Build([]*snapshot.Assets{
		{DirectConnectVirtualInterfaces: []snapshot.VirtualInterface{
			{ConnectionID: "dxcon-1", VirtualGatewayID: "vgw-1", AccountID: "111", Region: "us-east-1"},
		}},
		{DirectConnectConnections: []snapshot.DirectConnectConnection{
			{ConnectionID: "dxcon-1", ConnectionName: "primary"},
		}},
	})

	dx, ok := g.Node("arn:aws:directconnect:us-east-1:111:dxcon/dxcon-1")
	if !ok || dx.Name != "primary" {
		t.Errorf("Expected the later record to name the reconstructed connection, got %+v (found=%v)", dx, ok)
	}
	if counts := countByType(g); counts[model.ResourceDirectConnectConnection] != 1 {
		t.Errorf("Expected one DX node, got %d", counts[model.ResourceDirectConnectConnection])
	}
}

func TestBareID(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{key: "dxcon-1", want: "dxcon-1"},
		{key: "arn:aws:directconnect:us-east-1:111:dxcon/DXCON-1", want: "dxcon-1"},
		{key: "arn:aws:directconnect::111:dx-gateway/dcg-1", want: "dcg-1"},
		{key: "VGW-1", want: "vgw-1"},
	}
	for _, tt := range tests {
		if got := bareID(tt.key); got != tt.want {
			t.Errorf("bareID(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}
