package platform

import "strings"

// osFamilies maps GOOS values to the OS type names the publisher uses.
var osFamilies = map[string]string{
	"linux":   OSFamilyLinux,
	"darwin":  OSFamilyDarwin,
	"windows": OSFamilyWindows,
	"freebsd": "FreeBSD",
	"openbsd": "OpenBSD",
	"netbsd":  "NetBSD",
	"aix":     "AIX",
	"solaris": "SunOS",
	"illumos": "SunOS",
}

// publisherArches maps GOARCH values to the architecture names the publisher uses.
var publisherArches = map[string]string{
	"amd64":   "x64",
	"386":     "ia32",
	"arm64":   "arm64",
	"arm":     "arm",
	"ppc64":   "ppc64",
	"ppc64le": "ppc64",
	"s390x":   "s390x",
	"riscv64": "riscv64",
	"loong64": "loong64",
	"mips":    "mips",
	"mipsle":  "mipsel",
}

// familyMap maps distribution names to their canonical family names.
var familyMap = map[string]string{
	"debian":   FamilyDebian,
	"ubuntu":   FamilyDebian,
	"rhel":     FamilyRHEL,
	"centos":   FamilyRHEL,
	"rocky":    FamilyRHEL,
	"fedora":   FamilyFedora,
	"suse":     FamilySUSE,
	"opensuse": FamilySUSE,
	"arch":     FamilyArch,
	"manjaro":  FamilyArch,
	"alpine":   FamilyAlpine,
}

// OSFamily converts a GOOS value to the publisher's OS family tag.
// Unknown values pass through unchanged so the asset lookup reports them.
func OSFamily(goos string) string {
	if family, ok := osFamilies[strings.ToLower(strings.TrimSpace(goos))]; ok {
		return family
	}
	return goos
}

// PublisherArch converts a GOARCH value to the publisher's architecture tag.
// Unknown values pass through unchanged.
func PublisherArch(goarch string) string {
	if arch, ok := publisherArches[strings.ToLower(strings.TrimSpace(goarch))]; ok {
		return arch
	}
	return goarch
}

// normalizePlatform converts platform IDs to lowercase for consistency.
func normalizePlatform(platform string) string {
	return strings.ToLower(strings.TrimSpace(platform))
}

// mapFamily maps distribution family strings to canonical family names.
func mapFamily(family string) string {
	if canonical, ok := familyMap[normalizePlatform(family)]; ok {
		return canonical
	}
	return FamilyUnknown
}
