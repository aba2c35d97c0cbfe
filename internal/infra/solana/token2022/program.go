// internal/infra/solana/token2022/program.go
//
// Token-2022 の instruction を blocto SDK の types.Instruction として組み立てます。
// blocto の program/token は旧 Token Program 向けなので、
// Token-2022 の extension 系 instruction はここで直接エンコードしています。
package token2022

import (
	"errors"
	"fmt"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/types"
	"github.com/near/borsh-go"
)

var (
	ErrUnknownExtension = errors.New("token2022: unknown extension type")
	ErrEncode           = errors.New("token2022: encode instruction data")
)

// well-known program/sysvar ids
var (
	ProgramID    = common.PublicKeyFromString("TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb")
	SysVarRentID = common.PublicKeyFromString("SysvarRent111111111111111111111111111111111")
)

// Token instruction tags (first byte of instruction data).
const (
	instructionInitializeMint           uint8 = 0
	instructionTransferFeeExtension     uint8 = 26
	instructionMetadataPointerExtension uint8 = 39
	transferFeeInitializeConfig         uint8 = 0
	metadataPointerInitialize           uint8 = 0
)

// ExtensionType mirrors the Token-2022 extension enum.
type ExtensionType uint16

const (
	ExtensionTransferFeeConfig ExtensionType = 1
	ExtensionMetadataPointer   ExtensionType = 18
)

const (
	// Mint の拡張レイアウトは Account(165) と同じ長さまでパディングされ、
	// その後ろに AccountType(1) と TLV が続く。
	baseAccountLen = 165
	accountTypeLen = 1
	tlvHeaderLen   = 4

	transferFeeConfigLen = 108
	metadataPointerLen   = 64
)

func (e ExtensionType) dataLen() (int, error) {
	switch e {
	case ExtensionTransferFeeConfig:
		return transferFeeConfigLen, nil
	case ExtensionMetadataPointer:
		return metadataPointerLen, nil
	default:
		return 0, fmt.Errorf("%w: %d", ErrUnknownExtension, e)
	}
}

// ExtendedMintLen returns the account size of a mint carrying exts.
// For TransferFeeConfig + MetadataPointer this is 346.
func ExtendedMintLen(exts ...ExtensionType) (uint64, error) {
	n := baseAccountLen + accountTypeLen
	for _, e := range exts {
		l, err := e.dataLen()
		if err != nil {
			return 0, err
		}
		n += tlvHeaderLen + l
	}
	return uint64(n), nil
}

// COption<Pubkey> は borsh の Option (*T) と同じ可変長: None は tag 1 byte のみ。
type initializeTransferFeeConfigData struct {
	Instruction                uint8
	TransferFeeInstruction     uint8
	TransferFeeConfigAuthority *common.PublicKey
	WithdrawWithheldAuthority  *common.PublicKey
	TransferFeeBasisPoints     uint16
	MaximumFee                 uint64
}

// InitializeTransferFeeConfigParam: FeeAuthority / WithdrawAuthority が nil なら未設定。
type InitializeTransferFeeConfigParam struct {
	Mint              common.PublicKey
	FeeAuthority      *common.PublicKey
	WithdrawAuthority *common.PublicKey
	BasisPoints       uint16
	MaxFee            uint64
}

// InitializeTransferFeeConfig
// Accounts:
// 0. [writable] mint
func InitializeTransferFeeConfig(p InitializeTransferFeeConfigParam) (types.Instruction, error) {
	data, err := encode(initializeTransferFeeConfigData{
		Instruction:                instructionTransferFeeExtension,
		TransferFeeInstruction:     transferFeeInitializeConfig,
		TransferFeeConfigAuthority: p.FeeAuthority,
		WithdrawWithheldAuthority:  p.WithdrawAuthority,
		TransferFeeBasisPoints:     p.BasisPoints,
		MaximumFee:                 p.MaxFee,
	})
	if err != nil {
		return types.Instruction{}, err
	}
	return types.Instruction{
		ProgramID: ProgramID,
		Accounts: []types.AccountMeta{
			{PubKey: p.Mint, IsSigner: false, IsWritable: true},
		},
		Data: data,
	}, nil
}

type initializeMetadataPointerData struct {
	Instruction                uint8
	MetadataPointerInstruction uint8
	Authority                  common.PublicKey
	MetadataAddress            common.PublicKey
}

type InitializeMetadataPointerParam struct {
	Mint            common.PublicKey
	Authority       common.PublicKey
	MetadataAddress common.PublicKey
}

// InitializeMetadataPointer
// Accounts:
// 0. [writable] mint
func InitializeMetadataPointer(p InitializeMetadataPointerParam) (types.Instruction, error) {
	data, err := encode(initializeMetadataPointerData{
		Instruction:                instructionMetadataPointerExtension,
		MetadataPointerInstruction: metadataPointerInitialize,
		Authority:                  p.Authority,
		MetadataAddress:            p.MetadataAddress,
	})
	if err != nil {
		return types.Instruction{}, err
	}
	return types.Instruction{
		ProgramID: ProgramID,
		Accounts: []types.AccountMeta{
			{PubKey: p.Mint, IsSigner: false, IsWritable: true},
		},
		Data: data,
	}, nil
}

type initializeMintData struct {
	Instruction     uint8
	Decimals        uint8
	MintAuthority   common.PublicKey
	FreezeAuthority *common.PublicKey
}

type InitializeMintParam struct {
	Mint       common.PublicKey
	Decimals   uint8
	MintAuth   common.PublicKey
	FreezeAuth *common.PublicKey
}

// InitializeMint
// Accounts:
// 0. [writable] mint
// 1. [] rent sysvar
func InitializeMint(p InitializeMintParam) (types.Instruction, error) {
	data, err := encode(initializeMintData{
		Instruction:     instructionInitializeMint,
		Decimals:        p.Decimals,
		MintAuthority:   p.MintAuth,
		FreezeAuthority: p.FreezeAuth,
	})
	if err != nil {
		return types.Instruction{}, err
	}
	return types.Instruction{
		ProgramID: ProgramID,
		Accounts: []types.AccountMeta{
			{PubKey: p.Mint, IsSigner: false, IsWritable: true},
			{PubKey: SysVarRentID, IsSigner: false, IsWritable: false},
		},
		Data: data,
	}, nil
}

func encode(v any) ([]byte, error) {
	b, err := borsh.Serialize(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	return b, nil
}
