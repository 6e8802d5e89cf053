// Carga do certificado digital A1 a partir de .pfx/.p12 (PKCS#12) ou par PEM.

package signer

import (
	"crypto/tls"
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/pkcs12"
)

// LoadCertificate resolve o formato pelo sufixo do arquivo.
func LoadCertificate(certPath, keyPath, password string) (tls.Certificate, error) {
	if certPath == "" {
		return tls.Certificate{}, fmt.Errorf("signer: caminho do certificado não configurado")
	}
	lower := strings.ToLower(certPath)
	if strings.HasSuffix(lower, ".p12") || strings.HasSuffix(lower, ".pfx") {
		return LoadFromP12(certPath, password)
	}
	return LoadFromPEM(certPath, keyPath)
}

// LoadFromP12 carrega certificado e chave privada de um arquivo .p12/.pfx.
// A senha pode ser vazia se o arquivo não estiver protegido.
func LoadFromP12(path, password string) (tls.Certificate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("signer: lendo p12: %w", err)
	}
	priv, cert, err := pkcs12.Decode(data, password)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("signer: decodificando p12: %w", err)
	}
	// pkcs12.Decode devolve só o certificado folha, suficiente para o A1
	return tls.Certificate{
		Certificate: [][]byte{cert.Raw},
		PrivateKey:  priv,
		Leaf:        cert,
	}, nil
}

// LoadFromPEM carrega certificado e chave de arquivos PEM (separados ou combinados).
func LoadFromPEM(certPath, keyPath string) (tls.Certificate, error) {
	if keyPath == "" {
		keyPath = certPath
	}
	cert, err := tls.LoadX509KeyPair(certPath, keyPath)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("signer: carregando PEM: %w", err)
	}
	return cert, nil
}
