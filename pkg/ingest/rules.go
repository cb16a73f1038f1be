package ingest

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ritzau/net-topology/pkg/arn"
	"github.com/ritzau/net-topology/pkg/model"
	"github.com/ritzau/net-topology/pkg/snapshot"
)

// attachmentTypes maps the normalized attachment resource type to the node type of the attached resource
var attachmentTypes = map[string]model.ResourceType{
	"VPC":                    model.ResourceVPC,
	"VPN":                    model.ResourceVPNConnection,
	"DIRECT_CONNECT_GATEWAY": model.ResourceDirectConnectGateway,
}

// attachmentNodeType resolves an attachment resource type in any of its
// exported spellings ("VPC", "TGW_RESOURCE_TYPE_VPC", "direct-connect-gateway")
func attachmentNodeType(raw snapshot.AttachmentResourceType) (model.ResourceType, error) {
	name := strings.ToUpper(strings.TrimSpace(string(raw)))
	name = strings.TrimPrefix(name, "TGW_RESOURCE_TYPE_")
	name = strings.ReplaceAll(name, "-", "_")

	rt, ok := attachmentTypes[name]
	if !ok {
		return "", fmt.Errorf("attachment resource type %q: %w", string(raw), ErrUnknownResourceType)
	}
	return rt, nil
}

func missing(field string) error {
	return fmt.Errorf("%s: %w", field, ErrMissingLinkage)
}

// link creates both endpoints with their declared types and connects them.
// Nothing is written when the endpoints resolve to the same node.
func (in *Ingester) link(keyA string, typeA model.ResourceType, keyB string, typeB model.ResourceType, kind model.RelationshipKind, relationshipID string) error {
	if arn.Canonicalize(keyA) != arn.Canonicalize(keyB) {
		in.graph.UpsertNode(keyA, typeA, "")
		in.graph.UpsertNode(keyB, typeB, "")
	}
	return in.graph.AddEdge(keyA, keyB, kind, relationshipID)
}

// vgwKey is the node key of a VPN gateway referenced by bare ID
func vgwKey(account, region, id string) string {
	if arn.IsARN(arn.Canonicalize(id)) || account == "" || region == "" {
		return id
	}
	return arn.Reconstruct("ec2", account, region, "vpn-gateway", id)
}

// dxConnectionKey is the node key of a Direct Connect connection referenced by bare ID
func dxConnectionKey(account, region, id string) string {
	if arn.IsARN(arn.Canonicalize(id)) || account == "" || region == "" {
		return id
	}
	return arn.Reconstruct("directconnect", account, region, "dxcon", id)
}

// dxGatewayKey is the node key of a Direct Connect gateway. Gateways are
// global, so the key carries the owner account but no region.
func dxGatewayKey(account, id string) string {
	if arn.IsARN(arn.Canonicalize(id)) || account == "" {
		return id
	}
	return arn.Reconstruct("directconnect", account, "", "dx-gateway", id)
}

// bareID is the resource ID of a key: the part after the last "/" of an
// ARN, or the canonical key itself
func bareID(key string) string {
	key = arn.Canonicalize(key)
	if !arn.IsARN(key) {
		return key
	}
	if i := strings.LastIndex(key, "/"); i >= 0 {
		return key[i+1:]
	}
	return key
}

// resolve returns the node key of a resource that may be referenced both by
// bare ID and by (reconstructed) ARN. The first key seen for a bare ID wins,
// so a connection named by its own record and later reached through a
// virtual interface in another account stays one node.
func (in *Ingester) resolve(rt model.ResourceType, key string) string {
	alias := aliasKey{rt: rt, id: bareID(key)}
	if existing, ok := in.aliases[alias]; ok {
		return existing
	}
	key = arn.Canonicalize(key)
	in.aliases[alias] = key
	return key
}

func (in *Ingester) vgw(account, region, id string) string {
	return in.resolve(model.ResourceVPNGateway, vgwKey(account, region, id))
}

func (in *Ingester) dxConnection(account, region, id string) string {
	return in.resolve(model.ResourceDirectConnectConnection, dxConnectionKey(account, region, id))
}

func (in *Ingester) dxGateway(account, id string) string {
	return in.resolve(model.ResourceDirectConnectGateway, dxGatewayKey(account, id))
}

// AddTransitGateway adds a named transit gateway node
func (in *Ingester) AddTransitGateway(tgw snapshot.TransitGateway) error {
	if tgw.AssetID == "" {
		return missing("assetId")
	}
	in.graph.UpsertNode(tgw.AssetID, model.ResourceTGW, tgw.Name)
	return nil
}

// AddVPC adds a named VPC node
func (in *Ingester) AddVPC(vpc snapshot.VPC) error {
	if vpc.AssetID == "" {
		return missing("assetId")
	}
	in.graph.UpsertNode(vpc.AssetID, model.ResourceVPC, vpc.Name)
	return nil
}

// AddTGWAttachment connects a VPC, VPN connection or Direct Connect gateway to its transit gateway.
// The record is validated completely before anything is written.
func (in *Ingester) AddTGWAttachment(att snapshot.TransitGatewayAttachment) error {
	if att.TgwArn == "" {
		return missing("tgwArn")
	}
	if att.ResourceArn == "" {
		return missing("resourceArn")
	}
	rt, err := attachmentNodeType(att.ResourceType)
	if err != nil {
		return err
	}

	resource := att.ResourceArn
	if rt == model.ResourceDirectConnectGateway {
		resource = in.resolve(rt, resource)
	}

	in.logger.Trace("tgw attachment", "tgw", att.TgwArn, "resource", resource, "type", rt)
	return in.link(att.TgwArn, model.ResourceTGW, resource, rt, model.KindTGWAttach, att.TransitGatewayAttachmentID)
}

// AddTGWPeering connects two transit gateways
func (in *Ingester) AddTGWPeering(p snapshot.TransitGatewayPeering) error {
	if p.RequesterArn == "" {
		return missing("requesterArn")
	}
	if p.AccepterArn == "" {
		return missing("accepterArn")
	}
	return in.link(p.RequesterArn, model.ResourceTGW, p.AccepterArn, model.ResourceTGW, model.KindTGWPeering, p.AssetID)
}

// AddVPCPeering connects two VPCs
func (in *Ingester) AddVPCPeering(p snapshot.VPCPeeringConnection) error {
	if p.RequesterVpcInfo.VpcArn == "" {
		return missing("requesterVpcInfo.vpcArn")
	}
	if p.AccepterVpcInfo.VpcArn == "" {
		return missing("accepterVpcInfo.vpcArn")
	}
	return in.link(p.RequesterVpcInfo.VpcArn, model.ResourceVPC, p.AccepterVpcInfo.VpcArn, model.ResourceVPC, model.KindVPCPeering, p.VpcPeeringConnectionID)
}

// AddVPNGateway adds a VPN gateway node and returns its key.
// The VPC attachments are added separately with AddVPNGatewayAttachment.
func (in *Ingester) AddVPNGateway(vgw snapshot.VPNGateway) (string, error) {
	if vgw.AssetID == "" {
		return "", missing("assetId")
	}
	key := in.resolve(model.ResourceVPNGateway, vgw.AssetID)
	return in.graph.UpsertNode(key, model.ResourceVPNGateway, ""), nil
}

// AddVPNGatewayAttachment connects a VPN gateway to a VPC it is attached to
func (in *Ingester) AddVPNGatewayAttachment(gatewayKey, vpcArn string) error {
	if vpcArn == "" {
		return missing("vpcAttachments.vpcArn")
	}
	return in.link(gatewayKey, model.ResourceVPNGateway, vpcArn, model.ResourceVPC, model.KindVPNGatewayAttach, "")
}

// AddDirectConnectGateway adds a named Direct Connect gateway node and returns its key
func (in *Ingester) AddDirectConnectGateway(dcg snapshot.DirectConnectGateway) (string, error) {
	if dcg.DirectConnectGatewayID == "" {
		return "", missing("directConnectGatewayId")
	}
	key := in.dxGateway(dcg.OwnerAccount, dcg.DirectConnectGatewayID)
	return in.graph.UpsertNode(key, model.ResourceDirectConnectGateway, dcg.DirectConnectGatewayName), nil
}

// AddGatewayAssociation connects a Direct Connect gateway to an associated
// virtual private gateway. Associations with other gateway types are ignored.
func (in *Ingester) AddGatewayAssociation(dcgKey string, assoc snapshot.GatewayAssociation) error {
	gw := assoc.AssociatedGateway
	if !strings.EqualFold(gw.Type, "virtualPrivateGateway") {
		in.logger.Debug("ignoring gateway association", "dcg", dcgKey, "type", gw.Type, "gateway", gw.ID)
		return nil
	}
	if gw.ID == "" {
		return missing("associatedGateway.id")
	}

	key := in.vgw(gw.OwnerAccount, gw.Region, gw.ID)
	return in.link(dcgKey, model.ResourceDirectConnectGateway, key, model.ResourceVPNGateway, model.KindDCGatewayAssociation, assoc.AssociationID)
}

// AddDirectConnectConnection adds a named Direct Connect connection node and returns its key
func (in *Ingester) AddDirectConnectConnection(conn snapshot.DirectConnectConnection) (string, error) {
	if conn.ConnectionID == "" {
		return "", missing("connectionId")
	}
	key := in.dxConnection(conn.OwnerAccount, conn.Region, conn.ConnectionID)
	return in.graph.UpsertNode(key, model.ResourceDirectConnectConnection, conn.ConnectionName), nil
}

// AddVirtualInterface connects a Direct Connect connection to the virtual
// private gateway and the Direct Connect gateway the interface terminates
// on. Either or both may be present; failures are joined.
func (in *Ingester) AddVirtualInterface(vif snapshot.VirtualInterface) error {
	if vif.ConnectionID == "" {
		return missing("connectionId")
	}
	if vif.VirtualGatewayID == "" && vif.DirectConnectGatewayID == "" {
		return missing("virtualGatewayId or directConnectGatewayId")
	}

	dx := in.dxConnection(vif.AccountID, vif.Region, vif.ConnectionID)

	var errs []error
	if vif.VirtualGatewayID != "" {
		vgw := in.vgw(vif.AccountID, vif.Region, vif.VirtualGatewayID)
		if err := in.link(dx, model.ResourceDirectConnectConnection, vgw, model.ResourceVPNGateway, model.KindDCVirtualInterface, vif.AssetID); err != nil {
			errs = append(errs, err)
		}
	}
	if vif.DirectConnectGatewayID != "" {
		dcg := in.dxGateway(vif.AccountID, vif.DirectConnectGatewayID)
		if err := in.link(dx, model.ResourceDirectConnectConnection, dcg, model.ResourceDirectConnectGateway, model.KindDCVirtualInterface, vif.AssetID); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
