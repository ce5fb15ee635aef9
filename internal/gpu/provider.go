package gpu

import "github.com/gogpu/gpucontext"

// DeviceProvider lets a host application (e.g. a gogpu window) share its GPU
// device with the engine instead of the engine creating its own. It is an
// alias for gpucontext.DeviceProvider; providers that additionally expose
// HAL handles via HalDevice()/HalQueue() are used directly.
type DeviceProvider = gpucontext.DeviceProvider
