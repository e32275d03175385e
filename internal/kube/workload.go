package kube

import corev1 "k8s.io/api/core/v1"

// EnvNames lists the declared environment variable names of c in order.
func EnvNames(c corev1.Container) []string {
	names := make([]string, 0, len(c.Env))
	for _, e := range c.Env {
		names = append(names, e.Name)
	}
	return names
}

// FirstVolumeIsPVC reports whether the first declared volume is backed by a
// persistent volume claim.
func FirstVolumeIsPVC(spec corev1.PodSpec) bool {
	if len(spec.Volumes) == 0 {
		return false
	}
	return spec.Volumes[0].PersistentVolumeClaim != nil
}

// ClaimNames returns the claim names referenced by the pod's volumes.
func ClaimNames(spec corev1.PodSpec) []string {
	var out []string
	for _, v := range spec.Volumes {
		if v.PersistentVolumeClaim != nil {
			out = append(out, v.PersistentVolumeClaim.ClaimName)
		}
	}
	return out
}
