package nginx

import (
	"os/exec"
	"strings"

	"github.com/AdguardTeam/golibs/log"
)

// CmdValidator checks nginx configuration syntax by running "nginx -t"
// against the written document.
type CmdValidator struct {
	// Sudo elevates the check, needed when the configuration or the paths it
	// references are not readable by the current user.
	Sudo bool
}

// Validate runs the nginx syntax check.  ok is false when the binary rejects
// the document, msg carries the combined nginx output either way.
func (v *CmdValidator) Validate(documentPath string) (ok bool, msg string) {
	args := []string{"nginx", "-t", "-c", documentPath}
	if v.Sudo {
		args = append([]string{"sudo"}, args...)
	}

	log.Debug("nginx: validating %s", documentPath)

	// #nosec G204 -- The document path is produced by this program.
	out, err := exec.Command(args[0], args[1:]...).CombinedOutput()
	msg = strings.TrimSpace(string(out))

	return err == nil, msg
}

// CmdService restarts system services via systemctl.
type CmdService struct {
	// Sudo elevates the restart.
	Sudo bool
}

// Restart restarts the named service.  ok is false when systemctl exits with
// an error, msg carries the combined output.
func (s *CmdService) Restart(serviceName string) (ok bool, msg string) {
	args := []string{"systemctl", "restart", serviceName}
	if s.Sudo {
		args = append([]string{"sudo"}, args...)
	}

	log.Debug("nginx: restarting service %s", serviceName)

	// #nosec G204 -- The service name is a constant of this program.
	out, err := exec.Command(args[0], args[1:]...).CombinedOutput()
	msg = strings.TrimSpace(string(out))

	return err == nil, msg
}
