package filter

// DefaultRegistry builds the Registry of every reference text-span filter
// this module ships, in the category order of phicat.All. Structured-data
// filters (DICOM, see internal/dicomiface) are registered separately by
// callers that have a structured-document source, per spec.md §6's
// external-collaborator contract.
func DefaultRegistry() *Registry {
	return NewRegistry(
		NewNameFilter(),
		NewDateFilter(),
		NewSSNFilter(),
		NewPhoneFilter(),
		NewFaxFilter(),
		NewEmailFilter(),
		NewAddressFilter(),
		NewZipCodeFilter(),
		NewMRNFilter(),
		NewAccountNumberFilter(),
		NewHealthPlanIDFilter(),
		NewCreditCardFilter(),
		NewIPFilter(),
		NewURLFilter(),
		NewVINFilter(),
		NewLicensePlateFilter(),
		NewAge90PlusFilter(),
		NewNPIFilter(),
		NewDEAFilter(),
		NewBiometricFilter(),
		NewDeviceIDFilter(),
	)
}
