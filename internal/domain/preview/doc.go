/*
Package preview assembles sandboxed preview documents and manages the
lifecycle of each preview slot.

A Slot moves through Idle, Mounting, Mounted and Unmounting, and ends in
Unmounted when its viewer goes away. Every source change replaces the
mounted document with a new generation; the old generation is unregistered
from the relay and its console output cleared before the new one is
assembled, so output is never attributed to the wrong code.

Documents are served with "Content-Security-Policy: sandbox allow-scripts"
and shown in an iframe with sandbox="allow-scripts".
*/
package preview
