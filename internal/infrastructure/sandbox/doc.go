/*
Package sandbox provides the script context a hosted application runs in.

# Overview

Each application instance gets one Runtime, a goja VM with the Node-style
globals removed and timers disabled. Bind installs the instance's bridge as
the global PalmSystem object, so page scripts reach host operations the same
way they would inside the real engine:

	PalmSystem.identifier()                 // "com.example.app"
	PalmSystem.getDeviceInfo("ModelName")   // "OLED55"
	PalmSystem.setContainerAppReady("x")    // null when denied

Every PalmSystem function forwards its arguments, converted to strings, to
the bridge as one message. The return value is the payload string, or null
when the bridge reports a failure. Objects are passed as JSON text.

# Limits

  - Execution timeout per Execute call, plus cancellation through ctx
  - Bounded call stack
  - No require, process, module or exports

# Usage Example

	rt, err := sandbox.New(sandbox.DefaultConfig())
	if err != nil {
		return err
	}
	defer rt.Close()

	rt.Bind(instanceBridge)
	result, err := rt.Execute(ctx, "PalmSystem.locale()")
*/
package sandbox
