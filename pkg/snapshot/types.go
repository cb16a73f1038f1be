package snapshot

import (
	"encoding/json"
	"strconv"
)

// File is one decoded snapshot file (a SnapshotFilesResponse in its JSON form)
type File struct {
	Snapshot []Snapshot `json:"snapshot"`
}

// Snapshot is one inventory snapshot inside a file
type Snapshot struct {
	Assets Assets `json:"assets"`
}

// Assets is one batch of inventory records, grouped by category
type Assets struct {
	TransitGateways                  []TransitGateway           `json:"transitGateways"`
	Vpcs                             []VPC                      `json:"vpcs"`
	TransitGatewayAttachments        []TransitGatewayAttachment `json:"transitGatewayAttachments"`
	TransitGatewayPeeringAttachments []TransitGatewayPeering    `json:"transitGatewayPeeringAttachments"`
	VpcPeeringConnections            []VPCPeeringConnection     `json:"vpcPeeringConnections"`
	VpnGateways                      []VPNGateway               `json:"vpnGateways"`
	DirectConnectGateways            []DirectConnectGateway     `json:"directConnectGateways"`
	DirectConnectConnections         []DirectConnectConnection  `json:"directConnectConnections"`
	DirectConnectVirtualInterfaces   []VirtualInterface         `json:"directConnectVirtualInterfaces"`
}

// RecordCount returns the total number of top-level records in the batch
func (a *Assets) RecordCount() int {
	return len(a.TransitGateways) + len(a.Vpcs) + len(a.TransitGatewayAttachments) +
		len(a.TransitGatewayPeeringAttachments) + len(a.VpcPeeringConnections) +
		len(a.VpnGateways) + len(a.DirectConnectGateways) +
		len(a.DirectConnectConnections) + len(a.DirectConnectVirtualInterfaces)
}

type TransitGateway struct {
	AssetID string `json:"assetId"`
	Name    string `json:"name,omitempty"`
}

type VPC struct {
	AssetID string `json:"assetId"`
	Name    string `json:"name,omitempty"`
}

// TransitGatewayAttachment links a VPC, VPN connection or Direct Connect gateway to a TGW
type TransitGatewayAttachment struct {
	TgwArn                     string                 `json:"tgwArn"`
	ResourceArn                string                 `json:"resourceArn"`
	ResourceType               AttachmentResourceType `json:"resourceType"`
	ResourceID                 string                 `json:"resourceId,omitempty"`
	TransitGatewayAttachmentID string                 `json:"transitGatewayAttachmentId"`
}

type TransitGatewayPeering struct {
	RequesterArn string `json:"requesterArn"`
	AccepterArn  string `json:"accepterArn"`
	AssetID      string `json:"assetId"`
}

type VPCPeeringConnection struct {
	RequesterVpcInfo       VPCInfo `json:"requesterVpcInfo"`
	AccepterVpcInfo        VPCInfo `json:"accepterVpcInfo"`
	VpcPeeringConnectionID string  `json:"vpcPeeringConnectionId"`
}

type VPCInfo struct {
	VpcArn string `json:"vpcArn"`
}

type VPNGateway struct {
	AssetID        string          `json:"assetId"`
	VpcAttachments []VPCAttachment `json:"vpcAttachments,omitempty"`
}

type VPCAttachment struct {
	VpcArn string `json:"vpcArn"`
}

type DirectConnectGateway struct {
	DirectConnectGatewayID   string               `json:"directConnectGatewayId"`
	DirectConnectGatewayName string               `json:"directConnectGatewayName,omitempty"`
	OwnerAccount             string               `json:"ownerAccount,omitempty"`
	Associations             []GatewayAssociation `json:"associations,omitempty"`
}

type GatewayAssociation struct {
	AssociatedGateway AssociatedGateway `json:"associatedGateway"`
	AssociationID     string            `json:"associationId"`
}

type AssociatedGateway struct {
	Type         string `json:"type"` // e.g. "virtualPrivateGateway", "transitGateway"
	OwnerAccount string `json:"ownerAccount"`
	Region       string `json:"region"`
	ID           string `json:"id"`
}

type DirectConnectConnection struct {
	ConnectionID   string `json:"connectionId"`
	ConnectionName string `json:"connectionName,omitempty"`
	OwnerAccount   string `json:"ownerAccount,omitempty"`
	Region         string `json:"region,omitempty"`
}

type VirtualInterface struct {
	ConnectionID           string `json:"connectionId"`
	VirtualGatewayID       string `json:"virtualGatewayId,omitempty"`
	DirectConnectGatewayID string `json:"directConnectGatewayId,omitempty"`
	AccountID              string `json:"accountId"`
	Region                 string `json:"region"`
	AssetID                string `json:"assetId"`
	VirtualInterfaceType   string `json:"virtualInterfaceType,omitempty"` // "private", "public" or "transit"
}

// AttachmentResourceType is the attachment resource type enum.
// The JSON form is normally the enum name (e.g. "TGW_RESOURCE_TYPE_VPC");
// numeric values are kept as their decimal string.
type AttachmentResourceType string

func (t *AttachmentResourceType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*t = AttachmentResourceType(s)
		return nil
	}

	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*t = AttachmentResourceType(strconv.FormatInt(n, 10))
	return nil
}
