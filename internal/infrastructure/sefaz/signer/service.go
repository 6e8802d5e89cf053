// Serviço de assinatura digital da NF-e: assinatura envelopada XMLDSig
// (RSA-SHA1, C14N) sobre o elemento infNFe, com <Signature> inserido como
// irmão do infNFe dentro do NFe.

package signer

import (
	"bytes"
	"crypto"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/beevik/etree"
	"github.com/ucarion/c14n"

	appfiscal "github.com/eobicho/fiscal-api/internal/application/fiscal"
)

// Namespace padrão do documento assinado (herdado pelo infNFe extraído).
const nfeNamespace = "http://www.portalfiscal.inf.br/nfe"

// DigitalSignatureService assina o XML com o certificado A1 do emitente.
type DigitalSignatureService struct {
	cert tls.Certificate
}

func NewDigitalSignatureService(cert tls.Certificate) *DigitalSignatureService {
	return &DigitalSignatureService{cert: cert}
}

// Sign implementa a porta Signer: calcula o digest do infNFe canônico, assina
// o SignedInfo e injeta o nó Signature no documento.
func (s *DigitalSignatureService) Sign(xmlBytes []byte) ([]byte, error) {
	if len(xmlBytes) == 0 {
		return nil, fmt.Errorf("signer: XML vazio")
	}
	priv, ok := s.cert.PrivateKey.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("signer: o certificado deve conter chave privada RSA")
	}
	if len(s.cert.Certificate) == 0 {
		return nil, fmt.Errorf("signer: certificado vazio")
	}
	x509Cert, err := x509.ParseCertificate(s.cert.Certificate[0])
	if err != nil {
		return nil, fmt.Errorf("signer: parseando certificado: %w", err)
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(xmlBytes); err != nil {
		return nil, fmt.Errorf("signer: parseando XML: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("signer: documento sem raiz")
	}
	inf := findByTag(root, "infNFe")
	if inf == nil {
		return nil, fmt.Errorf("signer: infNFe não encontrado")
	}
	id := inf.SelectAttrValue("Id", "")
	if id == "" {
		return nil, fmt.Errorf("signer: infNFe sem atributo Id")
	}

	// 1) Digest do infNFe canônico (Reference URI="#NFe<chave>")
	infCanonical, err := canonicalizeElement(inf)
	if err != nil {
		return nil, fmt.Errorf("signer: canonicalizando infNFe: %w", err)
	}
	digest := sha1.Sum(infCanonical)
	digestB64 := base64.StdEncoding.EncodeToString(digest[:])

	// 2) SignedInfo canônico assinado com RSA-SHA1
	signedInfoXML := buildSignedInfo(id, digestB64)
	canonicalSignedInfo, err := canonicalizeBytes([]byte(signedInfoXML))
	if err != nil {
		canonicalSignedInfo = []byte(signedInfoXML)
	}
	signHash := sha1.Sum(canonicalSignedInfo)
	signatureValue, err := rsa.SignPKCS1v15(nil, priv, crypto.SHA1, signHash[:])
	if err != nil {
		return nil, fmt.Errorf("signer: assinando SignedInfo: %w", err)
	}

	// 3) Nó Signature completo, inserido após o infNFe
	signatureXML := buildSignature(
		signedInfoXML,
		base64.StdEncoding.EncodeToString(signatureValue),
		base64.StdEncoding.EncodeToString(x509Cert.Raw),
	)
	sigDoc := etree.NewDocument()
	if err := sigDoc.ReadFromString(signatureXML); err != nil {
		return nil, fmt.Errorf("signer: parseando Signature: %w", err)
	}
	root.AddChild(sigDoc.Root())

	var out bytes.Buffer
	if _, err := doc.WriteTo(&out); err != nil {
		return nil, fmt.Errorf("signer: serializando XML assinado: %w", err)
	}
	return out.Bytes(), nil
}

func buildSignedInfo(id, digestB64 string) string {
	var sb strings.Builder
	sb.WriteString(`<SignedInfo xmlns="` + NamespaceDS + `">`)
	sb.WriteString(`<CanonicalizationMethod Algorithm="` + AlgC14N + `"/>`)
	sb.WriteString(`<SignatureMethod Algorithm="` + AlgRSASHA1 + `"/>`)
	sb.WriteString(`<Reference URI="#` + id + `">`)
	sb.WriteString(`<Transforms><Transform Algorithm="` + TransformEnveloped + `"/>`)
	sb.WriteString(`<Transform Algorithm="` + AlgC14N + `"/></Transforms>`)
	sb.WriteString(`<DigestMethod Algorithm="` + AlgSHA1 + `"/>`)
	sb.WriteString(`<DigestValue>` + digestB64 + `</DigestValue>`)
	sb.WriteString(`</Reference></SignedInfo>`)
	return sb.String()
}

func buildSignature(signedInfoXML, signatureValueB64, certB64 string) string {
	var sb strings.Builder
	sb.WriteString(`<Signature xmlns="` + NamespaceDS + `">`)
	sb.WriteString(signedInfoXML)
	sb.WriteString(`<SignatureValue>` + signatureValueB64 + `</SignatureValue>`)
	sb.WriteString(`<KeyInfo><X509Data><X509Certificate>` + certB64 + `</X509Certificate></X509Data></KeyInfo>`)
	sb.WriteString(`</Signature>`)
	return sb.String()
}

// canonicalizeElement extrai o elemento para um documento próprio, garantindo
// o namespace herdado, e aplica C14N.
func canonicalizeElement(el *etree.Element) ([]byte, error) {
	cp := el.Copy()
	if cp.SelectAttr("xmlns") == nil {
		cp.CreateAttr("xmlns", nfeNamespace)
	}
	tmp := etree.NewDocument()
	tmp.AddChild(cp)
	raw, err := tmp.WriteToBytes()
	if err != nil {
		return nil, err
	}
	return canonicalizeBytes(raw)
}

func canonicalizeBytes(data []byte) ([]byte, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Entity = map[string]string{}
	return c14n.Canonicalize(dec)
}

func findByTag(el *etree.Element, tag string) *etree.Element {
	if el.Tag == tag {
		return el
	}
	for _, child := range el.ChildElements() {
		if found := findByTag(child, tag); found != nil {
			return found
		}
	}
	return nil
}

var _ appfiscal.Signer = (*DigitalSignatureService)(nil)
