// internal/application/provision/plan.go
package provision

import (
	"fmt"
	"strconv"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/program/system"
	"github.com/blocto/solana-go-sdk/types"

	mintdom "github.com/x1Brains/x1devtoolkit/internal/domain/mint"
	tierdom "github.com/x1Brains/x1devtoolkit/internal/domain/tier"
	"github.com/x1Brains/x1devtoolkit/internal/infra/solana/token2022"
)

// additional_metadata keys
const (
	AnnotationTierIndex = "tier_index"
	AnnotationMaxSupply = "max_supply"
	AnnotationDecimals  = "decimals"
	AnnotationProtocol  = "protocol"
)

var mintExtensions = []token2022.ExtensionType{
	token2022.ExtensionTransferFeeConfig,
	token2022.ExtensionMetadataPointer,
}

// TierPlan is everything about one tier's mint that can be computed offline.
type TierPlan struct {
	Index    int
	Tier     tierdom.Definition
	Operator common.PublicKey
	Mint     common.PublicKey
	Metadata token2022.TokenMetadata

	MintLen     uint64
	MetadataLen uint64
	Space       uint64
}

// BuildTierPlan computes the metadata record and account size for tier index.
func BuildTierPlan(s Settings, index int, def tierdom.Definition, operator, mint common.PublicKey) (TierPlan, error) {
	md := token2022.TokenMetadata{
		UpdateAuthority: operator,
		Mint:            mint,
		Name:            def.Name,
		Symbol:          def.Symbol,
		URI:             def.URI,
		AdditionalMetadata: []token2022.MetadataField{
			{Key: AnnotationTierIndex, Value: strconv.Itoa(index)},
			{Key: AnnotationMaxSupply, Value: strconv.FormatUint(def.Supply, 10)},
			{Key: AnnotationDecimals, Value: strconv.Itoa(int(s.Decimals))},
			{Key: AnnotationProtocol, Value: s.ProtocolTag},
		},
	}

	mintLen, err := token2022.ExtendedMintLen(mintExtensions...)
	if err != nil {
		return TierPlan{}, err
	}
	mdLen, err := md.PackedLen()
	if err != nil {
		return TierPlan{}, fmt.Errorf("pack metadata: %w", err)
	}

	return TierPlan{
		Index:       index,
		Tier:        def,
		Operator:    operator,
		Mint:        mint,
		Metadata:    md,
		MintLen:     mintLen,
		MetadataLen: mdLen,
		Space:       mintLen + mdLen + s.MetadataSlack,
	}, nil
}

// Annotations returns the additional metadata in domain form.
func (p TierPlan) Annotations() []mintdom.Annotation {
	out := make([]mintdom.Annotation, 0, len(p.Metadata.AdditionalMetadata))
	for _, f := range p.Metadata.AdditionalMetadata {
		out = append(out, mintdom.Annotation{Key: f.Key, Value: f.Value})
	}
	return out
}

// Instructions builds the five instructions of the mint-creation transaction, in order:
// 1) create account  2) transfer fee config  3) metadata pointer (self)
// 4) initialize mint  5) initialize token metadata
func (p TierPlan) Instructions(s Settings, lamports uint64) ([]types.Instruction, error) {
	operator := p.Operator

	transferFee, err := token2022.InitializeTransferFeeConfig(token2022.InitializeTransferFeeConfigParam{
		Mint:              p.Mint,
		FeeAuthority:      &operator,
		WithdrawAuthority: &operator,
		BasisPoints:       s.FeeBasisPoints,
		MaxFee:            s.MaxFee,
	})
	if err != nil {
		return nil, err
	}

	pointer, err := token2022.InitializeMetadataPointer(token2022.InitializeMetadataPointerParam{
		Mint:            p.Mint,
		Authority:       operator,
		MetadataAddress: p.Mint,
	})
	if err != nil {
		return nil, err
	}

	initMint, err := token2022.InitializeMint(token2022.InitializeMintParam{
		Mint:       p.Mint,
		Decimals:   s.Decimals,
		MintAuth:   operator,
		FreezeAuth: &operator,
	})
	if err != nil {
		return nil, err
	}

	initMetadata, err := token2022.InitializeTokenMetadata(token2022.InitializeTokenMetadataParam{
		Metadata:        p.Mint,
		UpdateAuthority: operator,
		Mint:            p.Mint,
		MintAuthority:   operator,
		Name:            p.Metadata.Name,
		Symbol:          p.Metadata.Symbol,
		URI:             p.Metadata.URI,
	})
	if err != nil {
		return nil, err
	}

	return []types.Instruction{
		system.CreateAccount(system.CreateAccountParam{
			From:     operator,
			New:      p.Mint,
			Owner:    token2022.ProgramID,
			Lamports: lamports,
			Space:    p.Space,
		}),
		transferFee,
		pointer,
		initMint,
		initMetadata,
	}, nil
}
