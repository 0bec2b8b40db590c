package pci

// Register offsets relative to the PCI Express capability (DeviceStatus) and
// the AER extended capability (everything else), per spec Tables 1-3.
const (
	DeviceStatusOffset = 0x0A
	DeviceStatusMask   = 0x0F

	UncorrectableStatusOffset   = 0x04
	UncorrectableMaskOffset     = 0x08
	UncorrectableSeverityOffset = 0x0C

	CorrectableStatusOffset = 0x10
	CorrectableMaskOffset   = 0x14
)

// BitDescriptor names one bit of a status/error register and the catalog
// position it occupies; iteration order across a catalog slice is part of
// the observable notification ordering.
type BitDescriptor struct {
	Mask uint32
	Name string
	Desc string
}

// DeviceStatusBits is Table 1: the four meaningful bits of the PCI Express
// Device Status register (capability offset + 0x0A), in catalog order.
var DeviceStatusBits = []BitDescriptor{
	{Mask: 0x01, Name: "CED", Desc: "Correctable Error"},
	{Mask: 0x02, Name: "NFED", Desc: "Non-Fatal Error"},
	{Mask: 0x04, Name: "FED", Desc: "Fatal Error"},
	{Mask: 0x08, Name: "URD", Desc: "Unsupported Request"},
}

// UncorrectableAERBits is Table 2: the AER Uncorrectable Error Status
// register bits, in catalog order. Bit positions match the standard PCIe AER
// layout (linux drivers/pci/pcie/aer.h PCI_ERR_UNC_*).
var UncorrectableAERBits = []BitDescriptor{
	{Mask: 1 << 4, Name: "DLP", Desc: "Data Link Protocol Error"},
	{Mask: 1 << 5, Name: "SURPDN", Desc: "Surprise Down Error"},
	{Mask: 1 << 12, Name: "POISON_TLP", Desc: "Poisoned TLP"},
	{Mask: 1 << 13, Name: "FCP", Desc: "Flow Control Protocol Error"},
	{Mask: 1 << 14, Name: "COMP_TIME", Desc: "Completion Timeout"},
	{Mask: 1 << 15, Name: "COMP_ABORT", Desc: "Completer Abort"},
	{Mask: 1 << 16, Name: "UNX_COMP", Desc: "Unexpected Completion"},
	{Mask: 1 << 17, Name: "RX_OVERFLOW", Desc: "Receiver Overflow"},
	{Mask: 1 << 18, Name: "MALF_TLP", Desc: "Malformed TLP"},
	{Mask: 1 << 19, Name: "ECRC", Desc: "ECRC Error"},
	{Mask: 1 << 20, Name: "UNSUP_REQ", Desc: "Unsupported Request"},
	{Mask: 1 << 21, Name: "ACS_VIOLATION", Desc: "ACS Violation"},
	{Mask: 1 << 22, Name: "INTERNAL", Desc: "Internal Error"},
	{Mask: 1 << 23, Name: "MC_BLOCKED_TLP", Desc: "MC-blocked TLP"},
	{Mask: 1 << 24, Name: "ATOMIC_EGRESS_BLOCKED", Desc: "Atomic Egress Blocked"},
	{Mask: 1 << 25, Name: "TLP_PREFIX_BLOCKED", Desc: "TLP Prefix Blocked"},
}

// CorrectableAERBits is Table 3: the AER Correctable Error Status register
// bits, in catalog order (linux drivers/pci/pcie/aer.h PCI_ERR_COR_*).
var CorrectableAERBits = []BitDescriptor{
	{Mask: 1 << 0, Name: "RX_ERR", Desc: "Receiver Error"},
	{Mask: 1 << 6, Name: "BAD_TLP", Desc: "Bad TLP"},
	{Mask: 1 << 7, Name: "BAD_DLLP", Desc: "Bad DLLP"},
	{Mask: 1 << 8, Name: "REPLAY_ROLLOVER", Desc: "REPLAY_NUM Rollover"},
	{Mask: 1 << 12, Name: "REPLAY_TIMEOUT", Desc: "Replay Timer Timeout"},
	{Mask: 1 << 13, Name: "ADVISORY_NONFATAL", Desc: "Advisory Non-Fatal"},
	{Mask: 1 << 14, Name: "CORR_INTERNAL", Desc: "Corrected Internal"},
	{Mask: 1 << 15, Name: "HEADER_OVERFLOW", Desc: "Header Log Overflow"},
}
