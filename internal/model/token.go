package model

// ERC-165 interface ids
var (
	InterfaceERC165  = [4]byte{0x01, 0xff, 0xc9, 0xa7}
	InterfaceERC721  = [4]byte{0x80, 0xac, 0x58, 0xcd}
	InterfaceERC1155 = [4]byte{0xd9, 0xb6, 0x7a, 0x26}
)
