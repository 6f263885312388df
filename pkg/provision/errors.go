package provision

import "errors"

var (
	// ErrEnvelope matches every failure of the signed envelope stage.
	ErrEnvelope = errors.New("provision: failed to open signed envelope")
	// ErrEnvelopeCreate indicates the envelope decoder could not be created.
	ErrEnvelopeCreate = errors.New("provision: failed to create envelope decoder")
	// ErrEnvelopeUpdate indicates the envelope decoder rejected the input bytes.
	ErrEnvelopeUpdate = errors.New("provision: failed to feed envelope decoder")
	// ErrEnvelopeFinalize indicates the envelope could not be parsed as a whole.
	ErrEnvelopeFinalize = errors.New("provision: failed to finalize envelope")
	// ErrEnvelopeExtract indicates the envelope carried no inner content.
	ErrEnvelopeExtract = errors.New("provision: failed to extract envelope content")

	// ErrStructuralParse indicates the envelope content is not a property list dictionary.
	ErrStructuralParse = errors.New("provision: failed to parse profile property list")

	// ErrEntitlementsConversion indicates a corrupt entitlements tree.
	ErrEntitlementsConversion = errors.New("provision: failed to convert entitlements")

	// ErrUnrepresentableValue indicates an untyped value outside the entitlement value algebra.
	ErrUnrepresentableValue = errors.New("provision: unrepresentable value")
	// ErrDecode indicates an encoded entitlement value could not be decoded.
	ErrDecode = errors.New("provision: failed to decode entitlement value")

	// ErrCertificateParse indicates malformed certificate bytes.
	ErrCertificateParse = errors.New("provision: failed to parse certificate")
	// ErrSummaryUnavailable indicates no subject summary could be produced for a certificate.
	ErrSummaryUnavailable = errors.New("provision: certificate summary unavailable")
	// ErrAttributesUnavailable indicates the certificate attribute dictionary could not be produced.
	ErrAttributesUnavailable = errors.New("provision: certificate attributes unavailable")
)

// envelopeError ties a stage sentinel to the umbrella ErrEnvelope.
type envelopeError struct {
	stage error
	err   error
}

func (e *envelopeError) Error() string {
	if e.err == nil {
		return e.stage.Error()
	}
	return e.stage.Error() + ": " + e.err.Error()
}

func (e *envelopeError) Unwrap() []error {
	if e.err == nil {
		return []error{e.stage, ErrEnvelope}
	}
	return []error{e.stage, ErrEnvelope, e.err}
}

func envelopeFailure(stage, err error) error {
	return &envelopeError{stage: stage, err: err}
}
