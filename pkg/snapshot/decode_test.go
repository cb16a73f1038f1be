package snapshot

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleSnapshot = `{
  "snapshot": [
    {
      "assets": {
        "transitGateways": [
          {"assetId": "arn:aws:ec2:us-east-1:111:transit-gateway/tgw-1", "name": "core"}
        ],
        "transitGatewayAttachments": [
          {
            "tgwArn": "arn:aws:ec2:us-east-1:111:transit-gateway/tgw-1",
            "resourceArn": "arn:aws:ec2:us-east-1:111:vpc/vpc-1",
            "resourceType": "TGW_RESOURCE_TYPE_VPC",
            "resourceId": "vpc-1",
            "transitGatewayAttachmentId": "tgw-attach-1"
          },
          {
            "tgwArn": "arn:aws:ec2:us-east-1:111:transit-gateway/tgw-1",
            "resourceArn": "arn:aws:ec2:us-east-1:111:vpn-connection/vpn-1",
            "resourceType": 7,
            "transitGatewayAttachmentId": "tgw-attach-2"
          }
        ],
        "vpcPeeringConnections": [
          {
            "requesterVpcInfo": {"vpcArn": "arn:aws:ec2:us-east-1:111:vpc/vpc-1"},
            "accepterVpcInfo": {"vpcArn": "arn:aws:ec2:us-east-1:222:vpc/vpc-2"},
            "vpcPeeringConnectionId": "pcx-1"
          }
        ],
        "vpnGateways": [
          {"assetId": "arn:aws:ec2:us-east-1:111:vpn-gateway/vgw-1", "vpcAttachments": [{"vpcArn": "arn:aws:ec2:us-east-1:111:vpc/vpc-1"}]}
        ]
      }
    },
    {
      "assets": {
        "vpcs": [{"assetId": "arn:aws:ec2:us-east-1:111:vpc/vpc-1", "name": "prod"}]
      }
    }
  ]
}`

func TestDecode(t *testing.T) {
	f, err := Decode(strings.NewReader(sampleSnapshot))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	batches := f.Batches()
	if len(batches) != 2 {
		t.Fatalf("Expected 2 batches, got %d", len(batches))
	}

	first := batches[0]
	if len(first.TransitGatewayAttachments) != 2 {
		t.Fatalf("Expected 2 attachments, got %d", len(first.TransitGatewayAttachments))
	}
	if first.TransitGatewayAttachments[0].ResourceType != "TGW_RESOURCE_TYPE_VPC" {
		t.Errorf("Unexpected resource type %q", first.TransitGatewayAttachments[0].ResourceType)
	}
	if first.TransitGatewayAttachments[1].ResourceType != "7" {
		t.Errorf("Numeric enum should decode to its decimal string, got %q", first.TransitGatewayAttachments[1].ResourceType)
	}
	if first.VpcPeeringConnections[0].AccepterVpcInfo.VpcArn != "arn:aws:ec2:us-east-1:222:vpc/vpc-2" {
		t.Errorf("Nested VPC info not decoded: %+v", first.VpcPeeringConnections[0])
	}
	if len(first.VpnGateways[0].VpcAttachments) != 1 {
		t.Errorf("Expected 1 VPC attachment on the VPN gateway")
	}
	if first.RecordCount() != 5 {
		t.Errorf("Expected 5 records in first batch, got %d", first.RecordCount())
	}

	if batches[1].Vpcs[0].Name != "prod" {
		t.Errorf("Expected VPC name prod, got %q", batches[1].Vpcs[0].Name)
	}
}

func TestDecodeMalformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "Empty input", input: ""},
		{name: "Truncated JSON", input: `{"snapshot": [`},
		{name: "Wrong type", input: `{"snapshot": {"assets": 1}}`},
		{name: "Bad enum", input: `{"snapshot": [{"assets": {"transitGatewayAttachments": [{"resourceType": true}]}}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.input))
			if !errors.Is(err, ErrMalformedSnapshot) {
				t.Errorf("Expected ErrMalformedSnapshot, got %v", err)
			}
		})
	}
}

func TestDecodeMalformedKeepsCause(t *testing.T) {
	_, err := Decode(strings.NewReader(`{"snapshot": [}`))
	var syntaxErr *json.SyntaxError
	if !errors.As(err, &syntaxErr) {
		t.Errorf("Expected *json.SyntaxError in the chain, got %v", err)
	}

	_, err = Decode(strings.NewReader(`{"snapshot": {"assets": 1}}`))
	var typeErr *json.UnmarshalTypeError
	if !errors.Is(err, ErrMalformedSnapshot) || !errors.As(err, &typeErr) {
		t.Errorf("Expected ErrMalformedSnapshot wrapping *json.UnmarshalTypeError, got %v", err)
	}
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "snap.json")
	if err := os.WriteFile(path, []byte(sampleSnapshot), 0o644); err != nil {
		t.Fatal(err)
	}

	f, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if len(f.Snapshot) != 2 {
		t.Errorf("Expected 2 snapshots, got %d", len(f.Snapshot))
	}

	if _, err := ReadFile(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("Expected error for missing file")
	}
}
