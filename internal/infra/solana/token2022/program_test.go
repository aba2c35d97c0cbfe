package token2022

import (
	"encoding/binary"
	"strings"
	"testing"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtendedMintLen(t *testing.T) {
	n, err := ExtendedMintLen(ExtensionTransferFeeConfig, ExtensionMetadataPointer)
	require.NoError(t, err)
	assert.Equal(t, uint64(346), n)

	n, err = ExtendedMintLen()
	require.NoError(t, err)
	assert.Equal(t, uint64(166), n)

	_, err = ExtendedMintLen(ExtensionType(999))
	assert.ErrorIs(t, err, ErrUnknownExtension)
}

func TestInitializeTransferFeeConfig(t *testing.T) {
	mint := types.NewAccount().PublicKey
	auth := types.NewAccount().PublicKey

	ins, err := InitializeTransferFeeConfig(InitializeTransferFeeConfigParam{
		Mint:              mint,
		FeeAuthority:      &auth,
		WithdrawAuthority: &auth,
		BasisPoints:       100,
		MaxFee:            1_000_000,
	})
	require.NoError(t, err)

	assert.Equal(t, ProgramID, ins.ProgramID)
	require.Len(t, ins.Accounts, 1)
	assert.Equal(t, types.AccountMeta{PubKey: mint, IsSigner: false, IsWritable: true}, ins.Accounts[0])

	d := ins.Data
	require.Len(t, d, 78)
	assert.Equal(t, []byte{26, 0, 1}, d[:3])
	assert.Equal(t, auth.Bytes(), d[3:35])
	assert.Equal(t, byte(1), d[35])
	assert.Equal(t, auth.Bytes(), d[36:68])
	assert.Equal(t, uint16(100), binary.LittleEndian.Uint16(d[68:70]))
	assert.Equal(t, uint64(1_000_000), binary.LittleEndian.Uint64(d[70:78]))
}

// COption::None is the tag byte alone; bps and max fee follow immediately.
func TestInitializeTransferFeeConfigWithoutAuthorities(t *testing.T) {
	ins, err := InitializeTransferFeeConfig(InitializeTransferFeeConfigParam{
		Mint:        types.NewAccount().PublicKey,
		BasisPoints: 100,
		MaxFee:      1_000_000,
	})
	require.NoError(t, err)

	d := ins.Data
	require.Len(t, d, 14)
	assert.Equal(t, []byte{26, 0, 0, 0}, d[:4])
	assert.Equal(t, uint16(100), binary.LittleEndian.Uint16(d[4:6]))
	assert.Equal(t, uint64(1_000_000), binary.LittleEndian.Uint64(d[6:14]))
}

func TestInitializeTransferFeeConfigMixedAuthorities(t *testing.T) {
	withdraw := types.NewAccount().PublicKey
	ins, err := InitializeTransferFeeConfig(InitializeTransferFeeConfigParam{
		Mint:              types.NewAccount().PublicKey,
		WithdrawAuthority: &withdraw,
		BasisPoints:       5,
		MaxFee:            7,
	})
	require.NoError(t, err)

	d := ins.Data
	require.Len(t, d, 2+1+33+2+8)
	assert.Equal(t, byte(0), d[2])
	assert.Equal(t, byte(1), d[3])
	assert.Equal(t, withdraw.Bytes(), d[4:36])
	assert.Equal(t, uint16(5), binary.LittleEndian.Uint16(d[36:38]))
	assert.Equal(t, uint64(7), binary.LittleEndian.Uint64(d[38:46]))
}

func TestInitializeMintWithoutFreezeAuthority(t *testing.T) {
	auth := types.NewAccount().PublicKey
	ins, err := InitializeMint(InitializeMintParam{Mint: types.NewAccount().PublicKey, Decimals: 3, MintAuth: auth})
	require.NoError(t, err)

	require.Len(t, ins.Data, 35)
	assert.Equal(t, []byte{0, 3}, ins.Data[:2])
	assert.Equal(t, auth.Bytes(), ins.Data[2:34])
	assert.Equal(t, byte(0), ins.Data[34])
}

func TestInitializeMetadataPointer(t *testing.T) {
	mint := types.NewAccount().PublicKey
	auth := types.NewAccount().PublicKey

	ins, err := InitializeMetadataPointer(InitializeMetadataPointerParam{
		Mint:            mint,
		Authority:       auth,
		MetadataAddress: mint,
	})
	require.NoError(t, err)

	require.Len(t, ins.Data, 66)
	assert.Equal(t, []byte{39, 0}, ins.Data[:2])
	assert.Equal(t, auth.Bytes(), ins.Data[2:34])
	assert.Equal(t, mint.Bytes(), ins.Data[34:66])
	assert.Equal(t, []types.AccountMeta{{PubKey: mint, IsWritable: true}}, ins.Accounts)
}

func TestInitializeMint(t *testing.T) {
	mint := types.NewAccount().PublicKey
	auth := types.NewAccount().PublicKey

	ins, err := InitializeMint(InitializeMintParam{
		Mint:       mint,
		Decimals:   3,
		MintAuth:   auth,
		FreezeAuth: &auth,
	})
	require.NoError(t, err)

	require.Len(t, ins.Data, 67)
	assert.Equal(t, []byte{0, 3}, ins.Data[:2])
	assert.Equal(t, auth.Bytes(), ins.Data[2:34])
	assert.Equal(t, byte(1), ins.Data[34])
	assert.Equal(t, auth.Bytes(), ins.Data[35:67])
	require.Len(t, ins.Accounts, 2)
	assert.Equal(t, SysVarRentID, ins.Accounts[1].PubKey)
}

func TestTokenMetadataPackedLen(t *testing.T) {
	m := TokenMetadata{
		UpdateAuthority: types.NewAccount().PublicKey,
		Mint:            types.NewAccount().PublicKey,
		Name:            "INCINERATOR",
		Symbol:          "INCNR",
		URI:             "",
		AdditionalMetadata: []MetadataField{
			{Key: "tier_index", Value: "0"},
			{Key: "max_supply", Value: "33"},
		},
	}

	expected := 32 + 32 +
		4 + len("INCINERATOR") +
		4 + len("INCNR") +
		4 + 0 +
		4 +
		4 + len("tier_index") + 4 + len("0") +
		4 + len("max_supply") + 4 + len("33")

	n, err := m.PackedLen()
	require.NoError(t, err)
	assert.Equal(t, uint64(expected), n)

	b, err := m.Pack()
	require.NoError(t, err)
	assert.Equal(t, m.UpdateAuthority.Bytes(), b[:32])
	assert.Equal(t, m.Mint.Bytes(), b[32:64])
	assert.Equal(t, uint32(len("INCINERATOR")), binary.LittleEndian.Uint32(b[64:68]))

	v, ok := m.Get("max_supply")
	assert.True(t, ok)
	assert.Equal(t, "33", v)
}

func TestTokenMetadataValidate(t *testing.T) {
	assert.ErrorIs(t, TokenMetadata{Name: strings.Repeat("x", MaxMetadataStringBytes+1)}.Validate(), ErrMetadataTooLarge)
	assert.ErrorIs(t, TokenMetadata{Symbol: string([]byte{0xff, 0xfe})}.Validate(), ErrMetadataNotUTF8)
	assert.NoError(t, TokenMetadata{Name: "SPARK", Symbol: "SPARK"}.Validate())
}

func TestInitializeTokenMetadata(t *testing.T) {
	mint := types.NewAccount().PublicKey
	auth := types.NewAccount().PublicKey

	ins, err := InitializeTokenMetadata(InitializeTokenMetadataParam{
		Metadata:        mint,
		UpdateAuthority: auth,
		Mint:            mint,
		MintAuthority:   auth,
		Name:            "SPARK",
		Symbol:          "SPARK",
		URI:             "https://example.com/spark.json",
	})
	require.NoError(t, err)

	assert.Equal(t, initializeDiscriminator[:], ins.Data[:8])
	assert.Len(t, ins.Data, 8+4+5+4+5+4+len("https://example.com/spark.json"))
	require.Len(t, ins.Accounts, 4)
	assert.True(t, ins.Accounts[0].IsWritable)
	assert.True(t, ins.Accounts[3].IsSigner)
	assert.Equal(t, auth, ins.Accounts[3].PubKey)

	_, err = InitializeTokenMetadata(InitializeTokenMetadataParam{Name: strings.Repeat("x", 600)})
	assert.ErrorIs(t, err, ErrMetadataTooLarge)
}

func TestProgramIDs(t *testing.T) {
	assert.Equal(t, "TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb", ProgramID.ToBase58())
	assert.NotEqual(t, common.PublicKey{}, SysVarRentID)
}
