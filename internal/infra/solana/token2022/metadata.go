// internal/infra/solana/token2022/metadata.go
package token2022

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/types"
)

var (
	ErrMetadataTooLarge = errors.New("token2022: metadata strings too large")
	ErrMetadataNotUTF8  = errors.New("token2022: metadata string is not valid utf-8")
)

// name + symbol + uri の合計上限。
// 5 instruction / 2 signer のトランザクションが 1232 byte のパケットに収まる範囲。
const MaxMetadataStringBytes = 560

// MetadataField is one additional_metadata entry, encoded as a borsh (String, String) tuple.
type MetadataField struct {
	Key   string
	Value string
}

// TokenMetadata is the token-metadata interface record stored in the mint account.
// Field order matches the on-chain layout.
type TokenMetadata struct {
	UpdateAuthority    common.PublicKey
	Mint               common.PublicKey
	Name               string
	Symbol             string
	URI                string
	AdditionalMetadata []MetadataField
}

// Validate rejects records the initialize instruction could not carry.
func (m TokenMetadata) Validate() error {
	for _, s := range []string{m.Name, m.Symbol, m.URI} {
		if !utf8.ValidString(s) {
			return fmt.Errorf("%w: %q", ErrMetadataNotUTF8, s)
		}
	}
	if n := len(m.Name) + len(m.Symbol) + len(m.URI); n > MaxMetadataStringBytes {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrMetadataTooLarge, n, MaxMetadataStringBytes)
	}
	return nil
}

// Pack serializes the record the way it is laid out on-chain (without the TLV header).
func (m TokenMetadata) Pack() ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return encode(m)
}

// PackedLen returns len(Pack()).
func (m TokenMetadata) PackedLen() (uint64, error) {
	b, err := m.Pack()
	if err != nil {
		return 0, err
	}
	return uint64(len(b)), nil
}

// Get returns the additional metadata value for key.
func (m TokenMetadata) Get(key string) (string, bool) {
	for _, f := range m.AdditionalMetadata {
		if f.Key == key {
			return f.Value, true
		}
	}
	return "", false
}

var initializeDiscriminator = discriminator("spl_token_metadata_interface:initialize_account")

func discriminator(name string) [8]byte {
	sum := sha256.Sum256([]byte(name))
	var d [8]byte
	copy(d[:], sum[:8])
	return d
}

type initializeTokenMetadataData struct {
	Discriminator [8]byte
	Name          string
	Symbol        string
	URI           string
}

type InitializeTokenMetadataParam struct {
	Metadata        common.PublicKey
	UpdateAuthority common.PublicKey
	Mint            common.PublicKey
	MintAuthority   common.PublicKey
	Name            string
	Symbol          string
	URI             string
}

// InitializeTokenMetadata
// Accounts:
// 0. [writable] metadata
// 1. [] update authority
// 2. [] mint
// 3. [signer] mint authority
func InitializeTokenMetadata(p InitializeTokenMetadataParam) (types.Instruction, error) {
	if err := (TokenMetadata{Name: p.Name, Symbol: p.Symbol, URI: p.URI}).Validate(); err != nil {
		return types.Instruction{}, err
	}
	data, err := encode(initializeTokenMetadataData{
		Discriminator: initializeDiscriminator,
		Name:          p.Name,
		Symbol:        p.Symbol,
		URI:           p.URI,
	})
	if err != nil {
		return types.Instruction{}, err
	}
	return types.Instruction{
		ProgramID: ProgramID,
		Accounts: []types.AccountMeta{
			{PubKey: p.Metadata, IsSigner: false, IsWritable: true},
			{PubKey: p.UpdateAuthority, IsSigner: false, IsWritable: false},
			{PubKey: p.Mint, IsSigner: false, IsWritable: false},
			{PubKey: p.MintAuthority, IsSigner: true, IsWritable: false},
		},
		Data: data,
	}, nil
}
