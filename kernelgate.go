package nlconn

import (
	"github.com/docker/docker/pkg/parsers/kernel"
)

// extAckMinKernel is the kernel release that introduced the extended
// acknowledgement TLVs (AckTLVs), ack-request NLM_F_ACK_TLVS and the
// associated error-message attributes.
var extAckMinKernel = kernel.VersionInfo{Kernel: 4, Major: 12, Minor: 0}

// SupportsExtendedAck reports whether the running kernel is new enough to
// populate AckTLVs attributes on Error frames. Endpoint does not use this
// itself -- parsing the AckTLVs attributes is family-specific -- but it is
// exposed for callers deciding whether to request them via AckRequest.
func SupportsExtendedAck() (bool, error) {
	v, err := kernel.GetKernelVersion()
	if err != nil {
		return false, err
	}
	return kernel.CompareKernelVersion(*v, extAckMinKernel) >= 0, nil
}
