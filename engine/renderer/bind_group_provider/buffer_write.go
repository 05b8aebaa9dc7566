package bind_group_provider

// BufferWrite is one queued write into a uniform or storage buffer owned by a provider.
// Binding selects the buffer; Offset is in bytes from its start.
type BufferWrite struct {
	Provider BindGroupProvider
	Binding  int
	Offset   uint64
	Data     []byte
}
