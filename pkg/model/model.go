package model

// ResourceType identifies the kind of cloud network resource a node represents
type ResourceType string

const (
	ResourceTGW                     ResourceType = "tgw"
	ResourceVPC                     ResourceType = "vpc"
	ResourceVPNGateway              ResourceType = "vpn-gateway"
	ResourceVPNConnection           ResourceType = "vpn-connection"
	ResourceDirectConnectGateway    ResourceType = "direct-connect-gateway"
	ResourceDirectConnectConnection ResourceType = "direct-connect-connection"
	ResourceUnknown                 ResourceType = "unknown" // Endpoint seen only through an unrecognized key shape
)

// RelationshipKind identifies the relationship an edge represents
type RelationshipKind string

const (
	KindTGWAttach            RelationshipKind = "TGW-Attach"             // VPC/VPN/DCG -> TGW
	KindTGWPeering           RelationshipKind = "TGW-Peering"            // TGW <-> TGW
	KindVPCPeering           RelationshipKind = "VPC-Peering"            // VPC <-> VPC
	KindVPNGatewayAttach     RelationshipKind = "VPN-Gateway-Attach"     // VGW <-> VPC
	KindDCVirtualInterface   RelationshipKind = "DC-Virtual-Interface"   // DX <-> VGW or DX <-> DCG
	KindDCGatewayAssociation RelationshipKind = "DC-Gateway-Association" // DCG <-> VGW
)

// NodeTemplate holds the display attributes fixed per resource type
type NodeTemplate struct {
	Label string
	Level int
	Size  int
	Image string
}

// EdgeStyle holds the display attributes fixed per relationship kind
type EdgeStyle struct {
	Color  string
	Weight float64
}

var nodeTemplates = map[ResourceType]NodeTemplate{
	ResourceTGW:                     {Label: "TGW", Level: 1, Size: 60, Image: "images/tgw.svg"},
	ResourceVPC:                     {Label: "VPC", Level: 2, Size: 20, Image: "images/vpc.svg"},
	ResourceVPNGateway:              {Label: "VGW", Level: 3, Size: 10, Image: "images/vpn-gateway.svg"},
	ResourceVPNConnection:           {Label: "VPN", Level: 3, Size: 10, Image: "images/vpn-connection.svg"},
	ResourceDirectConnectGateway:    {Label: "DCG", Level: 0, Size: 50, Image: "images/direct-connect-gateway.svg"},
	ResourceDirectConnectConnection: {Label: "DX", Level: 0, Size: 40, Image: "images/direct-connect-connection.svg"},
	ResourceUnknown:                 {Label: "?", Level: 4, Size: 10, Image: "images/unknown.svg"},
}

var edgeStyles = map[RelationshipKind]EdgeStyle{
	KindTGWAttach:            {Color: "black", Weight: 1},
	KindTGWPeering:           {Color: "red", Weight: 3},
	KindVPCPeering:           {Color: "green", Weight: 2},
	KindVPNGatewayAttach:     {Color: "purple", Weight: 1},
	KindDCVirtualInterface:   {Color: "blue", Weight: 2},
	KindDCGatewayAssociation: {Color: "orange", Weight: 2},
}

// Template returns the display template for a resource type.
// Unrecognized types fall back to the ResourceUnknown template.
func Template(rt ResourceType) NodeTemplate {
	if tmpl, ok := nodeTemplates[rt]; ok {
		return tmpl
	}
	return nodeTemplates[ResourceUnknown]
}

// Style returns the display style for a relationship kind
func Style(kind RelationshipKind) EdgeStyle {
	if style, ok := edgeStyles[kind]; ok {
		return style
	}
	return EdgeStyle{Color: "gray", Weight: 1}
}

// IsKnown returns true if the resource type is part of the fixed vocabulary
func (rt ResourceType) IsKnown() bool {
	_, ok := nodeTemplates[rt]
	return ok && rt != ResourceUnknown
}

// arnResourceTypes maps the resource segment of an ARN to a node type
var arnResourceTypes = map[string]ResourceType{
	"transit-gateway": ResourceTGW,
	"vpc":             ResourceVPC,
	"vpn-gateway":     ResourceVPNGateway,
	"vpn-connection":  ResourceVPNConnection,
	"dx-gateway":      ResourceDirectConnectGateway,
	"dxcon":           ResourceDirectConnectConnection,
}

// ResourceTypeFromARN maps an ARN resource segment (e.g. "transit-gateway")
// to a node type, returning ResourceUnknown for anything else.
func ResourceTypeFromARN(segment string) ResourceType {
	if rt, ok := arnResourceTypes[segment]; ok {
		return rt
	}
	return ResourceUnknown
}

// bareIDPrefixes maps well-known AWS ID prefixes to node types, for keys
// that are not ARNs
var bareIDPrefixes = []struct {
	prefix string
	rt     ResourceType
}{
	{"tgw-attach-", ResourceUnknown},
	{"tgw-", ResourceTGW},
	{"vpc-", ResourceVPC},
	{"vgw-", ResourceVPNGateway},
	{"vpn-", ResourceVPNConnection},
	{"dxcon-", ResourceDirectConnectConnection},
}

// ResourceTypeFromID guesses a node type from a bare AWS resource ID
func ResourceTypeFromID(id string) ResourceType {
	for _, p := range bareIDPrefixes {
		if len(id) > len(p.prefix) && id[:len(p.prefix)] == p.prefix {
			return p.rt
		}
	}
	return ResourceUnknown
}
