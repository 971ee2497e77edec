package ir

import "strconv"

// Linkage describes how a global or function is linked. The zero value is
// external linkage.
type Linkage uint8

const (
	LinkageExternal Linkage = iota
	LinkagePrivate
	LinkageInternal
	LinkageAvailableExternally
	LinkageLinkOnce
	LinkageWeak
	LinkageCommon
	LinkageAppending
	LinkageExternWeak
	LinkageLinkOnceODR
	LinkageWeakODR
)

var linkageNames = [...]string{
	LinkageExternal:            "external",
	LinkagePrivate:             "private",
	LinkageInternal:            "internal",
	LinkageAvailableExternally: "available_externally",
	LinkageLinkOnce:            "linkonce",
	LinkageWeak:                "weak",
	LinkageCommon:              "common",
	LinkageAppending:           "appending",
	LinkageExternWeak:          "extern_weak",
	LinkageLinkOnceODR:         "linkonce_odr",
	LinkageWeakODR:             "weak_odr",
}

func (l Linkage) String() string {
	if int(l) < len(linkageNames) {
		return linkageNames[l]
	}
	return "Linkage(" + strconv.Itoa(int(l)) + ")"
}

// Valid reports whether l is a known linkage.
func (l Linkage) Valid() bool { return int(l) < len(linkageNames) }

// ParseLinkage maps an LLVM linkage keyword to a Linkage.
func ParseLinkage(s string) (Linkage, bool) {
	for i, name := range linkageNames {
		if name == s {
			return Linkage(i), true
		}
	}
	return LinkageExternal, false
}

// CallConv is an LLVM calling convention number. Target specific
// conventions start at 64.
type CallConv uint32

const (
	CallC            CallConv = 0
	CallFast         CallConv = 8
	CallCold         CallConv = 9
	CallGHC          CallConv = 10
	CallHiPE         CallConv = 11
	CallWebKitJS     CallConv = 12
	CallAnyReg       CallConv = 13
	CallPreserveMost CallConv = 14
	CallPreserveAll  CallConv = 15
	CallSwift        CallConv = 16
	CallCxxFastTLS   CallConv = 17
)

func (c CallConv) String() string {
	switch c {
	case CallC:
		return "ccc"
	case CallFast:
		return "fastcc"
	case CallCold:
		return "coldcc"
	case CallWebKitJS:
		return "webkit_jscc"
	case CallAnyReg:
		return "anyregcc"
	case CallPreserveMost:
		return "preserve_mostcc"
	case CallPreserveAll:
		return "preserve_allcc"
	case CallCxxFastTLS:
		return "cxx_fast_tlscc"
	case CallSwift:
		return "swiftcc"
	default:
		return "cc " + strconv.FormatUint(uint64(c), 10)
	}
}
